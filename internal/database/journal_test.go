package database

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventIDSortsByTime(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := NewEventID(base)
	second := NewEventID(base.Add(time.Millisecond))

	assert.Len(t, first, 26)
	assert.Less(t, first, second)

	id, err := ulid.Parse(first)
	require.NoError(t, err)
	assert.True(t, base.Equal(ulid.Time(id.Time())))
}
