package models

// All enumerates every model managed by the schema
// migrator, in dependency order.
var All = []interface{}{
	&Plant{},
	&TaskTemplate{},
	&ChecklistItem{},
	&CareTask{},
	&HealthRecord{},
	&TaskChain{},
	&ChainStep{},
	&ChainAssignment{},
	&StepApproval{},
}
