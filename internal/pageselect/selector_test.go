package pageselect

import (
	"testing"

	"github.com/a3tai/mcp-pdf-annotator/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_DefaultsToAll(t *testing.T) {
	s := NewSelector(4)
	assert.Equal(t, []int{0, 1, 2, 3}, s.Selected())
	assert.True(t, s.AllSelected())

	s.SelectAll(false)
	assert.Empty(t, s.Selected())
	assert.False(t, s.AllSelected())
}

func TestSelector_Click(t *testing.T) {
	s := NewSelector(10)

	require.NoError(t, s.Click(2, false, false))
	assert.Equal(t, []int{2}, s.Selected())

	require.NoError(t, s.Click(5, true, false))
	assert.Equal(t, []int{2, 3, 4, 5}, s.Selected())

	require.NoError(t, s.Click(8, false, true))
	assert.Equal(t, []int{2, 3, 4, 5, 8}, s.Selected())

	require.NoError(t, s.Click(3, false, true))
	assert.Equal(t, []int{2, 4, 5, 8}, s.Selected())

	// shift extends from the last picked page (8), not the highest
	require.NoError(t, s.Click(6, true, false))
	assert.Equal(t, []int{2, 4, 5, 6, 7, 8}, s.Selected())

	assert.Error(t, s.Click(10, false, false))
	assert.Error(t, s.Click(-1, false, false))
}

func TestSelector_ShiftWithEmptySelectionSelectsOne(t *testing.T) {
	s := NewSelector(5)
	s.SelectAll(false)
	require.NoError(t, s.Click(3, true, false))
	assert.Equal(t, []int{3}, s.Selected())
}

func TestSelector_ApplyRangeKeepsSelectionOnError(t *testing.T) {
	s := NewSelector(10)
	require.NoError(t, s.ApplyRange("1-3,5"))
	assert.Equal(t, []int{0, 1, 2, 4}, s.Selected())

	err := s.ApplyRange("nonsense")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidPageRange))
	assert.Equal(t, []int{0, 1, 2, 4}, s.Selected())
}

func TestSelector_Confirm(t *testing.T) {
	s := NewSelector(3)
	got, err := s.Confirm()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	s.SelectAll(false)
	_, err = s.Confirm()
	assert.True(t, errors.IsType(err, errors.ErrorTypeEmptySelection))
}
