package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Extend ")
	require.NoError(t, err)
	assert.Equal(t, ActionExtend, a)

	_, err = ParseAction("cancel")
	assert.Error(t, err)
}

func TestActiveAt(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	future := now.Add(48 * time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, ActiveAt(StatusActive, &future, now))
	assert.True(t, ActiveAt(StatusTrial, &future, now))
	assert.False(t, ActiveAt(StatusActive, &past, now))
	assert.False(t, ActiveAt(StatusActive, nil, now))
	assert.False(t, ActiveAt(StatusInactive, &future, now))
}

func TestDaysLeft(t *testing.T) {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := now.Add(72*time.Hour + time.Hour)
	s := &Subscription{Status: StatusActive, PeriodEnd: &end}

	assert.Equal(t, 3, s.DaysLeft(now))
	assert.Equal(t, 0, (*Subscription)(nil).DaysLeft(now))
}
