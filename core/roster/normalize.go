package roster

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/trezcool/classboard/core"
)

// Options controls how the normalizer treats malformed cells.
type Options struct {
	// Strict fails the call on a non-empty numeric cell that is not an integer,
	// instead of coercing it to 0.
	Strict bool
}

// header aliases per logical field, by order of preference
var (
	noAliases    = []string{"No", "no"}
	nameAliases  = []string{"Name", "name"}
	totalAliases = []string{"Total", "total"}
	qAliases     = [5][]string{
		{"Ques 1", "q1"},
		{"Ques 2", "q2"},
		{"Ques 3", "q3"},
		{"Ques 4", "q4"},
		{"Ques 5", "q5"},
	}

	dateAliases        = []string{"Date", "date"}
	attendanceAliases  = []string{"Attendance", "attendance"}
	assStatusAliases   = []string{"Ass Status", "assStatus"}
	assTimeAliases     = []string{"Ass Time", "assTime"}
	questionAliases    = []string{"Question", "question"}
	descAliases        = []string{"Desc", "desc"}
	arrivalTimeAliases = []string{"Arrival Time", "arrivalTime"}
	markAliases        = []string{"Mark", "mark"}
)

// column is a logical field resolved against a table header: the matching header keys, in alias order.
type column struct {
	field string
	keys  []string
}

// resolveColumn matches aliases against the header set, exact matches first, then case-insensitive ones.
func resolveColumn(header []string, aliases []string) column {
	col := column{field: aliases[len(aliases)-1]}
	seen := make(map[string]bool, len(header))
	for _, alias := range aliases {
		for _, h := range header {
			if h == alias && !seen[h] {
				col.keys = append(col.keys, h)
				seen[h] = true
			}
		}
	}
	for _, alias := range aliases {
		for _, h := range header {
			if !seen[h] && strings.EqualFold(strings.TrimSpace(h), alias) {
				col.keys = append(col.keys, h)
				seen[h] = true
			}
		}
	}
	return col
}

// value returns the first non-blank cell among the resolved keys.
func (c column) value(row Row) string {
	for _, k := range c.keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

func (c column) text(row Row, dflt string) string {
	if v := c.value(row); v != "" {
		return v
	}
	return dflt
}

// header returns the table header, or the sorted keys of the first row when the header is unknown.
func (t Table) header() []string {
	if len(t.Header) > 0 || len(t.Rows) == 0 {
		return t.Header
	}
	h := make([]string, 0, len(t.Rows[0]))
	for k := range t.Rows[0] {
		h = append(h, k)
	}
	sort.Strings(h)
	return h
}

// parseLeadingInt reads the leading integer of s: "20" -> 20, "20.5" -> 20, "abc" -> (0, false).
// Negative values are clamped to 0.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil { // overflow
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	return n, true
}

type numParser struct {
	table  string
	strict bool
	err    error
}

// int parses a numeric cell. In strict mode the first malformed cell is kept as the parser's error.
func (p *numParser) int(row Row, idx int, col column) int {
	raw := col.value(row)
	if raw == "" {
		return 0
	}
	n, ok := parseLeadingInt(raw)
	if p.strict && p.err == nil {
		if _, err := strconv.Atoi(raw); err != nil {
			p.err = &RowError{Table: p.table, Row: idx + 1, Field: col.field, Value: raw}
		}
	}
	if !ok {
		return 0
	}
	return n
}

// NormalizeStudents infers the roster from attendance rows: one student per distinct non-blank name,
// in first-seen order, with sequential ids (S001, S002, ...), a synthesized email and a placeholder phone.
func NormalizeStudents(t Table) []Student {
	name := resolveColumn(t.header(), nameAliases)

	students := make([]Student, 0)
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		n := name.value(row)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		students = append(students, Student{
			StudentID:   "S" + leftPad(strconv.Itoa(len(students)+1), 3),
			StudentName: n,
			Email:       SynthesizeEmail(n),
			Phone:       "-",
		})
	}
	return students
}

// SynthesizeEmail builds the placeholder email of a student inferred from attendance.
func SynthesizeEmail(name string) string {
	local := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, core.CleanString(name, true))
	return local + "@gmail.com"
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// NormalizeTests converts test rows into TestResults, dropping rows without a name.
func NormalizeTests(t Table, opts Options) ([]TestResult, error) {
	header := t.header()
	no := resolveColumn(header, noAliases)
	name := resolveColumn(header, nameAliases)
	total := resolveColumn(header, totalAliases)
	var qs [5]column
	for i := range qAliases {
		qs[i] = resolveColumn(header, qAliases[i])
	}

	p := &numParser{table: t.Label, strict: opts.Strict}
	results := make([]TestResult, 0, len(t.Rows))
	for i, row := range t.Rows {
		n := name.value(row)
		if n == "" {
			continue
		}
		results = append(results, TestResult{
			No:    p.int(row, i, no),
			Name:  n,
			Q1:    p.int(row, i, qs[0]),
			Q2:    p.int(row, i, qs[1]),
			Q3:    p.int(row, i, qs[2]),
			Q4:    p.int(row, i, qs[3]),
			Q5:    p.int(row, i, qs[4]),
			Total: p.int(row, i, total),
		})
		if p.err != nil {
			return nil, p.err
		}
	}
	return results, nil
}

// NormalizeAttendance converts attendance rows into AttendanceEntries, dropping rows without a name.
func NormalizeAttendance(t Table, opts Options) ([]AttendanceEntry, error) {
	header := t.header()
	no := resolveColumn(header, noAliases)
	name := resolveColumn(header, nameAliases)
	date := resolveColumn(header, dateAliases)
	attendance := resolveColumn(header, attendanceAliases)
	assStatus := resolveColumn(header, assStatusAliases)
	assTime := resolveColumn(header, assTimeAliases)
	question := resolveColumn(header, questionAliases)
	desc := resolveColumn(header, descAliases)
	arrivalTime := resolveColumn(header, arrivalTimeAliases)
	mark := resolveColumn(header, markAliases)

	p := &numParser{table: t.Label, strict: opts.Strict}
	entries := make([]AttendanceEntry, 0, len(t.Rows))
	for i, row := range t.Rows {
		n := name.value(row)
		if n == "" {
			continue
		}
		entries = append(entries, AttendanceEntry{
			No:          p.int(row, i, no),
			Name:        n,
			Date:        date.value(row),
			Attendance:  attendance.text(row, AttendanceAbsent),
			AssStatus:   assStatus.text(row, "No"),
			AssTime:     assTime.text(row, "No"),
			Question:    question.text(row, "No"),
			Desc:        desc.text(row, "No"),
			ArrivalTime: arrivalTime.text(row, "-"),
			Mark:        p.int(row, i, mark),
		})
		if p.err != nil {
			return nil, p.err
		}
	}
	return entries, nil
}
