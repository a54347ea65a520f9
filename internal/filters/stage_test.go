package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type orderFilter struct {
	Bit    string
	Status string
	Date   string
}

func TestDismissKeepsCommitted(t *testing.T) {
	s := NewStage(orderFilter{Status: "Pending"})

	s.Open()
	assert.True(t, s.Edit(func(f *orderFilter) { f.Bit = "North"; f.Status = "Completed" }))
	assert.Equal(t, "North", s.Staged().Bit)

	s.Dismiss()

	assert.Equal(t, orderFilter{Status: "Pending"}, s.Committed())
	assert.False(t, s.IsOpen())
	assert.Equal(t, orderFilter{Status: "Pending"}, s.Open(), "reopening snapshots committed again")
}

func TestClearAllOnlyTouchesStaged(t *testing.T) {
	s := NewStage(orderFilter{Bit: "North", Date: "week"})

	s.Open()
	assert.True(t, s.ClearAll())
	assert.Equal(t, orderFilter{}, s.Staged())
	assert.Equal(t, orderFilter{Bit: "North", Date: "week"}, s.Committed())

	prev, next, applied := s.Apply()
	assert.True(t, applied)
	assert.Equal(t, orderFilter{Bit: "North", Date: "week"}, prev)
	assert.Equal(t, orderFilter{}, next)
	assert.Equal(t, orderFilter{}, s.Committed())
}

func TestEditRequiresOpenDialog(t *testing.T) {
	s := NewStage(orderFilter{})

	assert.False(t, s.Edit(func(f *orderFilter) { f.Bit = "South" }))
	_, _, applied := s.Apply()
	assert.False(t, applied)
	assert.Equal(t, orderFilter{}, s.Committed())
}

func TestCommittedFollowsLastApply(t *testing.T) {
	s := NewStage(orderFilter{})

	steps := []struct {
		bit    string
		commit bool
	}{
		{"North", true},
		{"South", false},
		{"East", true},
		{"West", false},
	}

	want := orderFilter{}
	for _, step := range steps {
		s.Open()
		bit := step.bit
		s.Edit(func(f *orderFilter) { f.Bit = bit })
		if step.commit {
			s.Apply()
			want = orderFilter{Bit: bit}
		} else {
			s.Dismiss()
		}
		assert.Equal(t, want, s.Committed())
	}
	assert.Equal(t, "East", s.Committed().Bit)
}
