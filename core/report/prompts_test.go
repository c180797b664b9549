package report

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core/roster"
)

var (
	shwe      = roster.Student{StudentID: "STU005", StudentName: "Shwe Sin Phoo", Email: "shwesinphoo@gmail.com", Phone: "09-000005"}
	shweTests = []roster.TestResult{{No: 5, Name: "Shwe Sin Phoo", Q1: 20, Q2: 18, Q3: 20, Q4: 20, Q5: 20, Total: 98}}
	shweAtt   = []roster.AttendanceEntry{{
		No: 5, Name: "Shwe Sin Phoo", Date: "2025-04-07", Attendance: "Class", AssStatus: "Yes",
		AssTime: "Yes", Question: "Yes", Desc: "Yes", ArrivalTime: "Arrive", Mark: 30,
	}}
	shweSnap = roster.Snapshot{Students: []roster.Student{shwe}, Tests: shweTests, Attendance: shweAtt}
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func TestPrompts(t *testing.T) {
	p, err := newPrompts("")
	require.NoError(t, err)

	t.Run("student", func(t *testing.T) {
		out, err := p.student(shwe, shweTests, shweAtt)
		require.NoError(t, err)
		newGoldie(t).Assert(t, "student", []byte(out))
	})

	t.Run("class", func(t *testing.T) {
		out, err := p.class(shweSnap)
		require.NoError(t, err)
		newGoldie(t).Assert(t, "class", []byte(out))
	})

	t.Run("chat", func(t *testing.T) {
		history := []ChatMessage{
			{Role: RoleUser, Content: "Who missed class?"},
			{Role: RoleModel, Content: "Nobody missed class."},
		}
		out, err := p.chat(shweSnap, history, "Is anyone at risk?")
		require.NoError(t, err)
		newGoldie(t).Assert(t, "chat", []byte(out))
	})
}

func TestPrompts_emptySnapshot(t *testing.T) {
	p, err := newPrompts("English")
	require.NoError(t, err)

	out, err := p.class(roster.Snapshot{})
	require.NoError(t, err)
	require.Contains(t, out, "- Total Students: 0")
	require.Contains(t, out, "- Test Results: []")
	require.Contains(t, out, "in English language")
	require.NotContains(t, out, "null")
}
