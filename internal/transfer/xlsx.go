package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/verdant-cloud/verdant/internal/models"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	sheetPlants      = "Plants"
	sheetTemplates   = "TaskTemplates"
	sheetChecklist   = "ChecklistItems"
	sheetTasks       = "CareTasks"
	sheetHealth      = "HealthRecords"
	sheetChains      = "TaskChains"
	sheetSteps       = "ChainSteps"
	sheetAssignments = "ChainAssignments"
	sheetApprovals   = "StepApprovals"
)

// ExportXLSX writes a full-database backup workbook, one
// sheet per entity, to w.
func ExportXLSX(ctx context.Context, dbConn *gorm.DB, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := exportPlants(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportTemplates(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportChecklist(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportTasks(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportHealth(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportChains(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportSteps(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportAssignments(ctx, dbConn, f); err != nil {
		return err
	}
	if err := exportApprovals(ctx, dbConn, f); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}

// RestoreXLSX replaces the entire database contents with the
// workbook read from r, in one transaction.
func RestoreXLSX(ctx context.Context, dbConn *gorm.DB, r io.Reader) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return dbConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// wipe in reverse dependency order
		for _, model := range []interface{}{
			&models.StepApproval{},
			&models.ChainAssignment{},
			&models.ChainStep{},
			&models.TaskChain{},
			&models.HealthRecord{},
			&models.CareTask{},
			&models.ChecklistItem{},
			&models.TaskTemplate{},
			&models.Plant{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		if err := restorePlants(tx, f); err != nil {
			return err
		}
		if err := restoreTemplates(tx, f); err != nil {
			return err
		}
		if err := restoreChecklist(tx, f); err != nil {
			return err
		}
		if err := restoreTasks(tx, f); err != nil {
			return err
		}
		if err := restoreHealth(tx, f); err != nil {
			return err
		}
		if err := restoreChains(tx, f); err != nil {
			return err
		}
		if err := restoreSteps(tx, f); err != nil {
			return err
		}
		if err := restoreAssignments(tx, f); err != nil {
			return err
		}
		return restoreApprovals(tx, f)
	})
}

func writeSheet(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// dataRows returns a sheet's rows without the header. A
// missing sheet is treated as empty.
func dataRows(f *excelize.File, sheet string) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		if strings.Contains(err.Error(), "doesn't exist") {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func exportPlants(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	plants := make(models.Plants, 0)
	if err := dbConn.WithContext(ctx).Find(&plants).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(plants))
	for _, p := range plants {
		rows = append(rows, []interface{}{
			p.ID.String(), p.Name, p.Species, p.Location,
			fmtTimePtr(p.AcquiredAt), p.Notes, fmtTime(p.CreatedAt),
		})
	}

	return writeSheet(f, sheetPlants,
		[]interface{}{"id", "name", "species", "location", "acquired_at", "notes", "created_at"},
		rows)
}

func restorePlants(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetPlants)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 7)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetPlants, i, err)
		}

		plant := &models.Plant{
			ID:       id,
			Name:     row[1],
			Species:  row[2],
			Location: row[3],
			Notes:    row[5],
		}
		if plant.AcquiredAt, err = parseTimePtr(row[4]); err != nil {
			return rowErr(sheetPlants, i, err)
		}

		if err := tx.Create(plant).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportTemplates(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	templates := make(models.TaskTemplates, 0)
	if err := dbConn.WithContext(ctx).Find(&templates).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(templates))
	for _, t := range templates {
		rows = append(rows, []interface{}{
			t.ID.String(), t.Name, string(t.Category), t.Description,
			string(t.Priority), t.IntervalDays, t.OneShot, t.ApplyToAll,
		})
	}

	return writeSheet(f, sheetTemplates,
		[]interface{}{"id", "name", "category", "description", "priority", "interval_days", "one_shot", "apply_to_all"},
		rows)
}

func restoreTemplates(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetTemplates)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 8)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetTemplates, i, err)
		}

		interval, err := parseInt(row[5])
		if err != nil {
			return rowErr(sheetTemplates, i, err)
		}

		template := &models.TaskTemplate{
			ID:           id,
			Name:         row[1],
			Category:     models.TaskCategory(row[2]),
			Description:  row[3],
			Priority:     models.TaskPriority(row[4]),
			IntervalDays: interval,
			OneShot:      parseBool(row[6]),
			ApplyToAll:   parseBool(row[7]),
		}

		if err := tx.Create(template).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportChecklist(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	items := make(models.ChecklistItems, 0)
	if err := dbConn.WithContext(ctx).Find(&items).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{
			item.ID.String(), item.TemplateID.String(), item.Text, item.Position, item.Done,
		})
	}

	return writeSheet(f, sheetChecklist,
		[]interface{}{"id", "template_id", "text", "position", "done"},
		rows)
}

func restoreChecklist(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetChecklist)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 5)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetChecklist, i, err)
		}
		templateID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetChecklist, i, err)
		}
		position, err := parseInt(row[3])
		if err != nil {
			return rowErr(sheetChecklist, i, err)
		}

		item := &models.ChecklistItem{
			ID:         id,
			TemplateID: templateID,
			Text:       row[2],
			Position:   position,
			Done:       parseBool(row[4]),
		}

		if err := tx.Create(item).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportTasks(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	tasks := make(models.CareTasks, 0)
	if err := dbConn.WithContext(ctx).Find(&tasks).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []interface{}{
			t.ID.String(), t.PlantID.String(), fmtUUIDPtr(t.TemplateID),
			t.Name, string(t.Category), string(t.Priority),
			fmtTime(t.DueAt), fmtTimePtr(t.CompletedAt), t.Notes,
		})
	}

	return writeSheet(f, sheetTasks,
		[]interface{}{"id", "plant_id", "template_id", "name", "category", "priority", "due_at", "completed_at", "notes"},
		rows)
}

func restoreTasks(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetTasks)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 9)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetTasks, i, err)
		}
		plantID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetTasks, i, err)
		}

		task := &models.CareTask{
			ID:       id,
			PlantID:  plantID,
			Name:     row[3],
			Category: models.TaskCategory(row[4]),
			Priority: models.TaskPriority(row[5]),
			Notes:    row[8],
		}

		if task.TemplateID, err = parseUUIDPtr(row[2]); err != nil {
			return rowErr(sheetTasks, i, err)
		}
		if task.DueAt, err = parseTime(row[6]); err != nil {
			return rowErr(sheetTasks, i, err)
		}
		if task.CompletedAt, err = parseTimePtr(row[7]); err != nil {
			return rowErr(sheetTasks, i, err)
		}

		if err := tx.Create(task).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportHealth(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	records := make(models.HealthRecords, 0)
	if err := dbConn.WithContext(ctx).Find(&records).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		metrics, err := json.Marshal(r.Metrics)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			r.ID.String(), r.PlantID.String(), string(r.Condition),
			r.Notes, string(metrics), fmtTime(r.ObservedAt),
		})
	}

	return writeSheet(f, sheetHealth,
		[]interface{}{"id", "plant_id", "condition", "notes", "metrics", "observed_at"},
		rows)
}

func restoreHealth(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetHealth)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 6)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetHealth, i, err)
		}
		plantID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetHealth, i, err)
		}

		record := &models.HealthRecord{
			ID:        id,
			PlantID:   plantID,
			Condition: models.HealthCondition(row[2]),
			Notes:     row[3],
		}

		if row[4] != "" {
			var metrics map[string]interface{}
			if err := json.Unmarshal([]byte(row[4]), &metrics); err != nil {
				return rowErr(sheetHealth, i, err)
			}
			record.Metrics = datatypes.JSONMap(metrics)
		}
		if record.ObservedAt, err = parseTime(row[5]); err != nil {
			return rowErr(sheetHealth, i, err)
		}

		if err := tx.Create(record).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportChains(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	chains := make(models.TaskChains, 0)
	if err := dbConn.WithContext(ctx).Find(&chains).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(chains))
	for _, c := range chains {
		rows = append(rows, []interface{}{
			c.ID.String(), c.Name, c.Description, c.Category, c.IsActive,
		})
	}

	return writeSheet(f, sheetChains,
		[]interface{}{"id", "name", "description", "category", "is_active"},
		rows)
}

func restoreChains(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetChains)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 5)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetChains, i, err)
		}

		chain := &models.TaskChain{
			ID:          id,
			Name:        row[1],
			Description: row[2],
			Category:    row[3],
			IsActive:    parseBool(row[4]),
		}

		if err := tx.Create(chain).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportSteps(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	steps := make(models.ChainSteps, 0)
	if err := dbConn.WithContext(ctx).Find(&steps).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(steps))
	for _, s := range steps {
		roles, err := json.Marshal(s.ApprovalRoles)
		if err != nil {
			return err
		}
		rows = append(rows, []interface{}{
			s.ID.String(), s.ChainID.String(), s.TemplateID.String(),
			s.Position, s.IsRequired, s.WaitHours, s.RequiresApproval, string(roles),
		})
	}

	return writeSheet(f, sheetSteps,
		[]interface{}{"id", "chain_id", "template_id", "position", "is_required", "wait_hours", "requires_approval", "approval_roles"},
		rows)
}

func restoreSteps(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetSteps)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 8)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetSteps, i, err)
		}
		chainID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetSteps, i, err)
		}
		templateID, err := uuid.Parse(row[2])
		if err != nil {
			return rowErr(sheetSteps, i, err)
		}
		position, err := parseInt(row[3])
		if err != nil {
			return rowErr(sheetSteps, i, err)
		}
		waitHours, err := parseInt(row[5])
		if err != nil {
			return rowErr(sheetSteps, i, err)
		}

		step := &models.ChainStep{
			ID:               id,
			ChainID:          chainID,
			TemplateID:       templateID,
			Position:         position,
			IsRequired:       parseBool(row[4]),
			WaitHours:        waitHours,
			RequiresApproval: parseBool(row[6]),
		}

		if row[7] != "" {
			var roles []string
			if err := json.Unmarshal([]byte(row[7]), &roles); err != nil {
				return rowErr(sheetSteps, i, err)
			}
			step.ApprovalRoles = datatypes.NewJSONSlice(roles)
		}

		if err := tx.Create(step).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportAssignments(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	assignments := make(models.ChainAssignments, 0)
	if err := dbConn.WithContext(ctx).Find(&assignments).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(assignments))
	for _, a := range assignments {
		rows = append(rows, []interface{}{
			a.ID.String(), a.ChainID.String(), a.PlantID.String(),
			string(a.Status), fmtUUIDPtr(a.CurrentStepID),
			fmtTime(a.StartedAt), fmtTimePtr(a.CompletedAt),
		})
	}

	return writeSheet(f, sheetAssignments,
		[]interface{}{"id", "chain_id", "plant_id", "status", "current_step_id", "started_at", "completed_at"},
		rows)
}

func restoreAssignments(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetAssignments)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 7)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetAssignments, i, err)
		}
		chainID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetAssignments, i, err)
		}
		plantID, err := uuid.Parse(row[2])
		if err != nil {
			return rowErr(sheetAssignments, i, err)
		}

		assignment := &models.ChainAssignment{
			ID:      id,
			ChainID: chainID,
			PlantID: plantID,
			Status:  models.AssignmentStatus(row[3]),
		}

		if assignment.CurrentStepID, err = parseUUIDPtr(row[4]); err != nil {
			return rowErr(sheetAssignments, i, err)
		}
		if assignment.StartedAt, err = parseTime(row[5]); err != nil {
			return rowErr(sheetAssignments, i, err)
		}
		if assignment.CompletedAt, err = parseTimePtr(row[6]); err != nil {
			return rowErr(sheetAssignments, i, err)
		}

		if err := tx.Create(assignment).Error; err != nil {
			return err
		}
	}
	return nil
}

func exportApprovals(ctx context.Context, dbConn *gorm.DB, f *excelize.File) error {
	approvals := make(models.StepApprovals, 0)
	if err := dbConn.WithContext(ctx).Find(&approvals).Error; err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(approvals))
	for _, a := range approvals {
		approvedBy := ""
		if a.ApprovedBy != nil {
			approvedBy = *a.ApprovedBy
		}
		rows = append(rows, []interface{}{
			a.ID.String(), a.AssignmentID.String(), a.StepID.String(),
			approvedBy, a.Notes, a.Approved, fmtTime(a.CreatedAt),
		})
	}

	return writeSheet(f, sheetApprovals,
		[]interface{}{"id", "assignment_id", "step_id", "approved_by", "notes", "approved", "created_at"},
		rows)
}

func restoreApprovals(tx *gorm.DB, f *excelize.File) error {
	rows, err := dataRows(f, sheetApprovals)
	if err != nil {
		return err
	}

	for i, row := range rows {
		row = pad(row, 7)
		id, err := uuid.Parse(row[0])
		if err != nil {
			return rowErr(sheetApprovals, i, err)
		}
		assignmentID, err := uuid.Parse(row[1])
		if err != nil {
			return rowErr(sheetApprovals, i, err)
		}
		stepID, err := uuid.Parse(row[2])
		if err != nil {
			return rowErr(sheetApprovals, i, err)
		}

		approval := &models.StepApproval{
			ID:           id,
			AssignmentID: assignmentID,
			StepID:       stepID,
			Notes:        row[4],
			Approved:     parseBool(row[5]),
		}
		if row[3] != "" {
			by := row[3]
			approval.ApprovedBy = &by
		}

		if err := tx.Create(approval).Error; err != nil {
			return err
		}
	}
	return nil
}

func rowErr(sheet string, i int, err error) error {
	return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
}

// pad extends a row to n columns; excelize drops trailing
// empty cells.
func pad(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmtTime(*t)
}

func fmtUUIDPtr(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func parseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseUUIDPtr(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}
