package saga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextStepsToCompensateIsReversedDifference(t *testing.T) {
	c := NewContext()
	c.CompleteStep("first", nil)
	c.CompleteStep("second", "data")
	c.CompleteStep("third", nil)

	assert.Equal(t, []string{"third", "second", "first"}, c.StepsToCompensate())

	c.CompensateStep("third")
	assert.Equal(t, []string{"second", "first"}, c.StepsToCompensate())

	c.CompensateStep("first")
	assert.Equal(t, []string{"second"}, c.StepsToCompensate())

	c.CompensateStep("second")
	assert.Empty(t, c.StepsToCompensate())
}

func TestContextCompensationData(t *testing.T) {
	c := NewContext()
	c.CompleteStep("reserve", []string{"res-1"})
	c.CompleteStep("pay", nil)

	data, ok := c.CompensationData("reserve")
	require.True(t, ok)
	assert.Equal(t, []string{"res-1"}, data)

	_, ok = c.CompensationData("pay")
	assert.False(t, ok)
}

func TestContextRecordCompensationDataDoesNotCompleteStep(t *testing.T) {
	c := NewContext()
	c.CompleteStep("first", nil)
	c.RecordCompensationData("second", []string{"res-1"})

	assert.Equal(t, []string{"first"}, c.CompletedSteps())
	assert.Equal(t, []string{"first"}, c.StepsToCompensate())

	data, ok := c.CompensationData("second")
	require.True(t, ok)
	assert.Equal(t, []string{"res-1"}, data)
}

func TestContextReturnsCopies(t *testing.T) {
	c := NewContext()
	c.CompleteStep("first", nil)

	completed := c.CompletedSteps()
	completed[0] = "mutated"

	assert.Equal(t, []string{"first"}, c.CompletedSteps())
}

func TestNewContextGeneratesUniqueIDs(t *testing.T) {
	first := NewContext()
	second := NewContext()

	assert.NotEmpty(t, first.SagaID)
	assert.NotEqual(t, first.SagaID, second.SagaID)
	assert.False(t, first.StartedAt.IsZero())
}
