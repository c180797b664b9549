package roster

import "time"

type (
	Student struct {
		StudentID   string `json:"student_id"`
		StudentName string `json:"student_name"`
		Email       string `json:"email"`
		Phone       string `json:"phone"`
	}

	TestResult struct {
		No    int    `json:"no"`
		Name  string `json:"name"`
		Q1    int    `json:"q1"`
		Q2    int    `json:"q2"`
		Q3    int    `json:"q3"`
		Q4    int    `json:"q4"`
		Q5    int    `json:"q5"`
		Total int    `json:"total"` // as given by the source, never recomputed
	}

	AttendanceEntry struct {
		No          int    `json:"no"`
		Name        string `json:"name"`
		Date        string `json:"date"`
		Attendance  string `json:"attendance"`
		AssStatus   string `json:"assStatus"`
		AssTime     string `json:"assTime"`
		Question    string `json:"question"`
		Desc        string `json:"desc"`
		ArrivalTime string `json:"arrivalTime"`
		Mark        int    `json:"mark"`
	}

	// Snapshot is the complete set of normalized collections plus sync metadata.
	Snapshot struct {
		Students     []Student         `json:"students"`
		Tests        []TestResult      `json:"tests"`
		Attendance   []AttendanceEntry `json:"attendance"`
		LastSyncedAt *time.Time        `json:"lastSyncedAt"`
		Loading      bool              `json:"loading"`
	}

	// Row is one untyped record keyed by header name.
	Row map[string]string

	// Table is a fetched source: its header (in source order) and data rows.
	Table struct {
		Label  string
		Header []string
		Rows   []Row
		Issues []string // tolerated parse problems
	}
)

// Attendance values
const (
	AttendanceClass  = "Class"
	AttendanceAbsent = "Absent"
)

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Loading: s.Loading}
	if s.Students != nil {
		c.Students = append(make([]Student, 0, len(s.Students)), s.Students...)
	}
	if s.Tests != nil {
		c.Tests = append(make([]TestResult, 0, len(s.Tests)), s.Tests...)
	}
	if s.Attendance != nil {
		c.Attendance = append(make([]AttendanceEntry, 0, len(s.Attendance)), s.Attendance...)
	}
	if s.LastSyncedAt != nil {
		t := *s.LastSyncedAt
		c.LastSyncedAt = &t
	}
	return c
}

// StudentByID looks up a student by its identifier.
func (s Snapshot) StudentByID(id string) (Student, bool) {
	for _, st := range s.Students {
		if st.StudentID == id {
			return st, true
		}
	}
	return Student{}, false
}

// TestsOf returns the test results joined to name.
func (s Snapshot) TestsOf(name string) []TestResult {
	res := make([]TestResult, 0)
	for _, t := range s.Tests {
		if t.Name == name {
			res = append(res, t)
		}
	}
	return res
}

// AttendanceOf returns the attendance entries joined to name.
func (s Snapshot) AttendanceOf(name string) []AttendanceEntry {
	res := make([]AttendanceEntry, 0)
	for _, a := range s.Attendance {
		if a.Name == name {
			res = append(res, a)
		}
	}
	return res
}
