package roster

import (
	"math"
	"sort"
	"strings"
)

const (
	PassMark      = 70
	ExcellentMark = 85

	RankingsPerPage = 5
)

type (
	ClassStats struct {
		TotalStudents  int     `json:"totalStudents"`
		AverageScore   float64 `json:"averageScore"`
		AttendanceRate float64 `json:"attendanceRate"` // percent of "Class" entries
		CriticalCount  int     `json:"criticalCount"`  // total < PassMark
		HighestScore   int     `json:"highestScore"`
		PassCount      int     `json:"passCount"`
		PassRate       float64 `json:"passRate"`
	}

	RankedResult struct {
		Rank int `json:"rank"`
		TestResult
		Grade string `json:"grade"`
	}

	Skill struct {
		Subject string `json:"subject"`
		Score   int    `json:"score"`
		Full    int    `json:"full"`
	}

	StudentDetail struct {
		Student        Student           `json:"student"`
		Tests          []TestResult      `json:"tests"`
		Attendance     []AttendanceEntry `json:"attendance"`
		LatestTest     *TestResult       `json:"latestTest"`
		Skills         []Skill           `json:"skills"`
		AttendanceRate int               `json:"attendanceRate"` // rounded percent
	}

	Page[T any] struct {
		Items      []T `json:"items"`
		Page       int `json:"page"`
		PerPage    int `json:"perPage"`
		TotalPages int `json:"totalPages"`
		TotalItems int `json:"totalItems"`
	}
)

// Stats computes the class-wide dashboard figures.
func Stats(snap Snapshot) ClassStats {
	st := ClassStats{TotalStudents: len(snap.Students)}

	if n := len(snap.Tests); n > 0 {
		var sum int
		for _, t := range snap.Tests {
			sum += t.Total
			if t.Total > st.HighestScore {
				st.HighestScore = t.Total
			}
			if t.Total >= PassMark {
				st.PassCount++
			} else {
				st.CriticalCount++
			}
		}
		st.AverageScore = round1(float64(sum) / float64(n))
		st.PassRate = round1(float64(st.PassCount) / float64(n) * 100)
	}

	st.AttendanceRate = round1(attendanceRate(snap.Attendance))
	return st
}

func attendanceRate(entries []AttendanceEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var present int
	for _, a := range entries {
		if a.Attendance == AttendanceClass {
			present++
		}
	}
	return float64(present) / float64(len(entries)) * 100
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

// Grade labels a test total.
func Grade(total int) string {
	switch {
	case total >= ExcellentMark:
		return "Excellent"
	case total >= PassMark:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

// Rankings sorts test results by total, highest first. Ties keep their source order.
func Rankings(tests []TestResult) []RankedResult {
	sorted := append(make([]TestResult, 0, len(tests)), tests...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Total > sorted[j].Total })

	ranked := make([]RankedResult, len(sorted))
	for i, t := range sorted {
		ranked[i] = RankedResult{Rank: i + 1, TestResult: t, Grade: Grade(t.Total)}
	}
	return ranked
}

// Paginate returns the 1-based page of items. Out of range pages are clamped.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage < 1 {
		perPage = 1
	}
	totalPages := (len(items) + perPage - 1) / perPage
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Items:      append(make([]T, 0, end-start), items[start:end]...),
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: len(items),
	}
}

// SearchStudents filters students whose name, id or email contains query (case-insensitive).
func SearchStudents(students []Student, query string) []Student {
	query = strings.ToLower(strings.TrimSpace(query))
	res := make([]Student, 0, len(students))
	for _, s := range students {
		if query == "" ||
			strings.Contains(strings.ToLower(s.StudentName), query) ||
			strings.Contains(strings.ToLower(s.StudentID), query) ||
			strings.Contains(strings.ToLower(s.Email), query) {
			res = append(res, s)
		}
	}
	return res
}

var skillSubjects = [5]string{"Q1: Syntax", "Q2: Logic", "Q3: Algorithm", "Q4: UI/UX", "Q5: Project"}

// Detail joins a student's tests and attendance by exact name.
func Detail(snap Snapshot, studentID string) (StudentDetail, error) {
	st, ok := snap.StudentByID(studentID)
	if !ok {
		return StudentDetail{}, ErrNotFound
	}

	d := StudentDetail{
		Student:    st,
		Tests:      snap.TestsOf(st.StudentName),
		Attendance: snap.AttendanceOf(st.StudentName),
		Skills:     make([]Skill, 0, len(skillSubjects)),
	}
	d.AttendanceRate = int(math.Round(attendanceRate(d.Attendance)))

	for i := range d.Tests {
		if d.LatestTest == nil || d.Tests[i].No > d.LatestTest.No {
			latest := d.Tests[i]
			d.LatestTest = &latest
		}
	}
	if t := d.LatestTest; t != nil {
		for i, score := range [5]int{t.Q1, t.Q2, t.Q3, t.Q4, t.Q5} {
			d.Skills = append(d.Skills, Skill{Subject: skillSubjects[i], Score: score, Full: 20})
		}
	}
	return d, nil
}
