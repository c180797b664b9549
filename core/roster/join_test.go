package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateJoin(t *testing.T) {
	students := []Student{{StudentID: "S001", StudentName: "Shwe Sin Phoo"}, {StudentID: "S002", StudentName: "Kyaw Kyaw"}}

	tests := []struct {
		name string
		snap Snapshot
		want []Orphan
	}{
		{
			name: "all joined",
			snap: Snapshot{
				Students:   students,
				Tests:      []TestResult{{Name: "Shwe Sin Phoo"}, {Name: "Kyaw Kyaw"}},
				Attendance: []AttendanceEntry{{Name: "Kyaw Kyaw"}},
			},
		},
		{
			name: "typo gets a suggestion",
			snap: Snapshot{
				Students: students,
				Tests:    []TestResult{{Name: "Shwe Sin Phoo"}, {Name: "Shwe Sin Pho"}},
			},
			want: []Orphan{{Collection: "tests", Index: 1, Name: "Shwe Sin Pho", Suggestion: "Shwe Sin Phoo"}},
		},
		{
			name: "case differences are orphans too",
			snap: Snapshot{
				Students:   students,
				Attendance: []AttendanceEntry{{Name: "kyaw kyaw"}},
			},
			want: []Orphan{{Collection: "attendance", Index: 0, Name: "kyaw kyaw", Suggestion: "Kyaw Kyaw"}},
		},
		{
			name: "unrelated name",
			snap: Snapshot{
				Students: students,
				Tests:    []TestResult{{Name: "Zaw Min"}},
			},
			want: []Orphan{{Collection: "tests", Index: 0, Name: "Zaw Min"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateJoin(tt.snap))
		})
	}
}

func TestOrphan_String(t *testing.T) {
	o := Orphan{Collection: "tests", Index: 1, Name: "Shwe Sin Pho", Suggestion: "Shwe Sin Phoo"}
	assert.Equal(t, `tests[1]: "Shwe Sin Pho" matches no student (did you mean "Shwe Sin Phoo"?)`, o.String())

	o.Suggestion = ""
	assert.Equal(t, `tests[1]: "Shwe Sin Pho" matches no student`, o.String())
}
