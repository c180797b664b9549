package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"text/template"

	"github.com/pkg/errors"

	"github.com/trezcool/classboard/core/roster"
)

//go:embed templates/*.tmpl
var promptFS embed.FS

var promptFuncs = template.FuncMap{
	"json": func(v interface{}) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"speaker": func(role string) string {
		if role == RoleUser {
			return "Teacher"
		}
		return "Assistant"
	},
}

type (
	studentPromptData struct {
		Language   string
		Student    roster.Student
		Tests      []roster.TestResult
		Attendance []roster.AttendanceEntry
	}

	classPromptData struct {
		Language   string
		Students   []roster.Student
		Tests      []roster.TestResult
		Attendance []roster.AttendanceEntry
	}

	chatPromptData struct {
		classPromptData
		History  []ChatMessage
		Question string
	}

	prompts struct {
		tmpl     *template.Template
		language string
	}
)

func newPrompts(language string) (*prompts, error) {
	if language == "" {
		language = "Myanmar"
	}
	tmpl, err := template.New("prompts").Funcs(promptFuncs).ParseFS(promptFS, "templates/*.tmpl")
	if err != nil {
		return nil, errors.Wrap(err, "parsing prompt templates")
	}
	return &prompts{tmpl: tmpl.Option("missingkey=error"), language: language}, nil
}

func (p *prompts) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errors.Wrapf(err, "rendering %s", name)
	}
	return buf.String(), nil
}

func (p *prompts) student(st roster.Student, tests []roster.TestResult, attendance []roster.AttendanceEntry) (string, error) {
	return p.render("student.tmpl", studentPromptData{
		Language:   p.language,
		Student:    st,
		Tests:      tests,
		Attendance: attendance,
	})
}

func (p *prompts) class(snap roster.Snapshot) (string, error) {
	return p.render("class.tmpl", p.classData(snap))
}

func (p *prompts) chat(snap roster.Snapshot, history []ChatMessage, question string) (string, error) {
	return p.render("chat.tmpl", chatPromptData{
		classPromptData: p.classData(snap),
		History:         history,
		Question:        question,
	})
}

func (p *prompts) classData(snap roster.Snapshot) classPromptData {
	d := classPromptData{
		Language:   p.language,
		Students:   snap.Students,
		Tests:      snap.Tests,
		Attendance: snap.Attendance,
	}
	// null would read as "no data" to the model
	if d.Students == nil {
		d.Students = []roster.Student{}
	}
	if d.Tests == nil {
		d.Tests = []roster.TestResult{}
	}
	if d.Attendance == nil {
		d.Attendance = []roster.AttendanceEntry{}
	}
	return d
}
