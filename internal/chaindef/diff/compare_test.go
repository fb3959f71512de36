package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spec(name string, steps ...StepSpec) ChainSpec {
	return ChainSpec{Name: name, Category: "treatment", Steps: steps}
}

func TestCompareEmpty(t *testing.T) {
	diff := Compare(map[string]ChainSpec{}, map[string]ChainSpec{})
	assert.True(t, diff.Empty())
}

func TestCompareCreates(t *testing.T) {
	desired := map[string]ChainSpec{
		"new-chain": spec("new-chain", StepSpec{Template: "a", Required: true}),
	}

	diff := Compare(desired, map[string]ChainSpec{})
	require.Len(t, diff.Creates, 1)
	assert.Equal(t, "new-chain", diff.Creates[0].Name)
	assert.Empty(t, diff.Updates)
	assert.Empty(t, diff.Deletes)
}

func TestCompareDeletes(t *testing.T) {
	actual := map[string]ChainSpec{
		"old-chain": spec("old-chain"),
	}

	diff := Compare(map[string]ChainSpec{}, actual)
	require.Len(t, diff.Deletes, 1)
	assert.Equal(t, "old-chain", diff.Deletes[0].Name)
}

func TestCompareUpdates(t *testing.T) {
	desired := map[string]ChainSpec{
		"chain": spec("chain", StepSpec{Template: "a", Required: true, WaitHours: 48}),
	}
	actual := map[string]ChainSpec{
		"chain": spec("chain", StepSpec{Template: "a", Required: true, WaitHours: 24}),
	}

	diff := Compare(desired, actual)
	require.Len(t, diff.Updates, 1)
	assert.Equal(t, "chain", diff.Updates[0].Name)
	assert.Contains(t, diff.Updates[0].Diff, "WaitHours")
}

func TestCompareIdenticalSpecs(t *testing.T) {
	steps := []StepSpec{{Template: "a", Required: true}}
	desired := map[string]ChainSpec{"chain": {Name: "chain", Steps: steps}}
	actual := map[string]ChainSpec{"chain": {Name: "chain", Steps: steps}}

	assert.True(t, Compare(desired, actual).Empty())
}

func TestCompareTreatsNilAndEmptyRolesAsEqual(t *testing.T) {
	desired := map[string]ChainSpec{
		"chain": spec("chain", StepSpec{Template: "a", ApprovalRoles: []string{}}),
	}
	actual := map[string]ChainSpec{
		"chain": spec("chain", StepSpec{Template: "a", ApprovalRoles: nil}),
	}

	assert.True(t, Compare(desired, actual).Empty())
}
