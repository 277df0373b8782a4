package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreviousMonthWrapsYear(t *testing.T) {
	y, m := BillingPeriod{Year: 2025, Month: 1}.PreviousMonth()
	assert.Equal(t, 2024, y)
	assert.Equal(t, 12, m)
}

func TestTransition(t *testing.T) {
	inactive := BillingPeriod{Status: StatusInactive}
	active := BillingPeriod{Status: StatusActive}
	completed := BillingPeriod{Status: StatusCompleted}

	assert.NoError(t, inactive.Transition(StatusActive))
	assert.NoError(t, active.Transition(StatusCompleted))
	assert.NoError(t, active.Transition(StatusInactive))
	assert.ErrorIs(t, completed.Transition(StatusActive), ErrInvalidTransition)
	assert.ErrorIs(t, inactive.Transition(StatusCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, active.Transition(StatusActive), ErrInvalidTransition)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "March 2025", BillingPeriod{Year: 2025, Month: 3}.Label())
}
