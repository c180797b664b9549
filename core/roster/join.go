package roster

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// suggestionRatio is the minimum similarity for a student name to be suggested.
const suggestionRatio = 0.8

// Orphan is a test or attendance record whose name matches no student.
type Orphan struct {
	Collection string `json:"collection"` // tests | attendance
	Index      int    `json:"index"`
	Name       string `json:"name"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (o Orphan) String() string {
	msg := fmt.Sprintf("%s[%d]: %q matches no student", o.Collection, o.Index, o.Name)
	if o.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", o.Suggestion)
	}
	return msg
}

// ValidateJoin reports the records of snap that cannot be joined to a student by exact name.
func ValidateJoin(snap Snapshot) []Orphan {
	names := make(map[string]bool, len(snap.Students))
	for _, s := range snap.Students {
		names[s.StudentName] = true
	}

	var orphans []Orphan
	suggest := func(collection string, idx int, name string) {
		if names[name] {
			return
		}
		orphans = append(orphans, Orphan{
			Collection: collection,
			Index:      idx,
			Name:       name,
			Suggestion: closestName(name, snap.Students),
		})
	}
	for i, t := range snap.Tests {
		suggest("tests", i, t.Name)
	}
	for i, a := range snap.Attendance {
		suggest("attendance", i, a.Name)
	}
	return orphans
}

// closestName returns the most similar student name, or "" when none reaches suggestionRatio.
func closestName(name string, students []Student) string {
	var best string
	var bestRatio float64
	target := strings.Split(strings.ToLower(name), "")
	for _, s := range students {
		m := difflib.NewMatcher(target, strings.Split(strings.ToLower(s.StudentName), ""))
		if r := m.Ratio(); r > bestRatio {
			best, bestRatio = s.StudentName, r
		}
	}
	if bestRatio < suggestionRatio {
		return ""
	}
	return best
}
