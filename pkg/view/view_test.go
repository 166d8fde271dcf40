package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/gantta/pkg/errors"
	"github.com/harrisonrobin/gantta/pkg/model"
)

func mk(name, epic string, start, end int) model.Task {
	return model.Task{
		Name:       name,
		EpicNumber: epic,
		StartDate:  model.NewDate(2024, time.January, start),
		EndDate:    model.NewDate(2024, time.January, end),
	}
}

func sample() []model.Task {
	return []model.Task{
		mk("A", "EPIC-1", 1, 3),
		mk("B", "epic-2", 8, 10),
		mk("C", "", 15, 20),
		mk("D", "EPIC-12", 22, 31),
	}
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Task.Name
	}
	return out
}

func TestVisibleAllReturnsEverythingInOrder(t *testing.T) {
	for _, epic := range []string{"", "All", "All Epics", "all epics"} {
		items, err := Visible(sample(), State{Epic: epic})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C", "D"}, names(items), "epic=%q", epic)
		assert.Equal(t, 2, items[2].Index)
	}
}

func TestEpicFilterIsCaseInsensitiveSubstring(t *testing.T) {
	items, err := Visible(sample(), State{Epic: "Epic-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, names(items))
	assert.Equal(t, 3, items[1].Index)
}

func TestDateRangeIntersection(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []string
	}{
		{"from only", State{From: "2024-01-10"}, []string{"B", "C", "D"}},
		{"to only", State{To: "2024-01-08"}, []string{"A", "B"}},
		{"window", State{From: "2024-01-04", To: "2024-01-15"}, []string{"B", "C"}},
		{"touching bounds", State{From: "2024-01-03", To: "2024-01-03"}, []string{"A"}},
		{"empty window", State{From: "2024-02-01"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Visible(sample(), tt.state)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(items))
		})
	}
}

func TestMalformedFilterDateDropsDateFilter(t *testing.T) {
	items, err := Visible(sample(), State{Epic: "epic", From: "2024-13-40", To: "2024-01-05"})

	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
	assert.Equal(t, []string{"A", "B", "D"}, names(items), "epic filter still applies")
}

func TestEpicOptions(t *testing.T) {
	tasks := append(sample(), mk("E", "EPIC-1", 2, 2))
	assert.Equal(t, []string{AllEpics, "EPIC-1", "EPIC-12", "epic-2"}, EpicOptions(tasks))
}

func TestStateCleared(t *testing.T) {
	assert.True(t, State{Epic: AllEpics}.Cleared())
	assert.False(t, State{To: "2024-01-01"}.Cleared())
}
