package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/apps/shared"
	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/report"
	"github.com/trezcool/classboard/core/roster"
	aisvc "github.com/trezcool/classboard/services/ai"
	emailsvc "github.com/trezcool/classboard/services/email"
	"github.com/trezcool/classboard/storage/database"
	"github.com/trezcool/classboard/tests"
)

const (
	testsCSV = "No,Name,Ques 1,Ques 2,Ques 3,Ques 4,Ques 5,Total\n" +
		"5,Shwe Sin Phoo,20,18,20,20,20,98\n"
	attendanceCSV = "No,Name,Date,Attendance,Ass Status,Ass Time,Question,Desc,Arrival Time,Mark\n" +
		"5,Shwe Sin Phoo,2025-04-07,Class,Yes,Yes,Yes,Yes,Arrive,30\n"
)

type staticCompleter string

func (s staticCompleter) Complete(context.Context, string) (string, error) { return string(s), nil }

func newTestConfig(t *testing.T) *core.Config {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/tests-sheet/"):
			_, _ = w.Write([]byte(testsCSV))
		case strings.Contains(r.URL.Path, "/attendance-sheet/"):
			_, _ = w.Write([]byte(attendanceCSV))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	conf := testutil.NewConfig()
	conf.Sheets.BaseURL = srv.URL + "/d"
	return conf
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := newTestConfig(t)
	logger := testutil.NewLogger()
	deps, err := shared.New(context.Background(), conf, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	out := new(bytes.Buffer)
	cli := newCommandLine(conf, logger, out)
	cli.deps = deps
	return cli, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    []string // substrings
}

func runCLITests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out.Reset()
			cmd := cli.rootCommand()
			cmd.SetArgs(tc.args)
			err := cmd.Execute()

			switch {
			case tc.wantErr != nil:
				assert.Equal(t, tc.wantErr, errors.Cause(err))
			case tc.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tc.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
			for _, s := range tc.wantOut {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func Test_commandLine_config(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "bad format", args: []string{"config", "get", "--format", "yaml"}, wantErr: errUnknownFormat},
		{name: "get", args: []string{"config", "get"}, wantOut: []string{`"testsSourceId": "tests-sheet"`}},
		{name: "set blank", args: []string{"config", "set", "--tests", "  "}, wantErrStr: "testsSourceId: this field cannot be blank"},
		{
			name:    "set one id",
			args:    []string{"config", "set", "--attendance", " new-attendance ", "--format", "text"},
			wantOut: []string{"tests: tests-sheet\n", "attendance: new-attendance\n"},
		},
	})
}

func Test_commandLine_syncAndStats(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "stats before sync", args: []string{"stats", "--format", "text"}, wantOut: []string{"#1", "Shwe Sin Phoo", "Excellent"}},
		{name: "sync", args: []string{"sync", "--format", "text"}, wantOut: []string{"students: 1\n", "tests: 1\n", "attendance: 1\n"}},
		{name: "sync rejects args", args: []string{"sync", "now"}, wantErrStr: "unknown command"},
	})

	out.Reset()
	cmd := cli.rootCommand()
	cmd.SetArgs([]string{"stats"})
	require.NoError(t, cmd.Execute())

	var got struct {
		Stats    roster.ClassStats                `json:"stats"`
		Rankings roster.Page[roster.RankedResult] `json:"rankings"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, 1, got.Stats.TotalStudents)
	assert.Equal(t, 98, got.Stats.HighestScore)
	assert.Equal(t, 100.0, got.Stats.AttendanceRate)
	assert.Len(t, got.Rankings.Items, 1)
}

func Test_commandLine_report(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, out, []cliTest{
		{name: "class without AI key", args: []string{"report", "class"}, wantErr: aisvc.ErrNotConfigured},
		{name: "student needs an id", args: []string{"report", "student"}, wantErrStr: "accepts 1 arg(s)"},
	})

	answer := `{"problemsDetected":["p"],"improvementIdeas":["i"],"weeklyActionPlan":["w1"],` +
		`"detailedPlan":"Plan","psychologicalProfile":"pp","technicalDrills":["t"],"expectedOutcome":"Outcome"}`
	reports, err := report.NewService(staticCompleter(answer), cli.deps.Roster, cli.deps.KV, cli.deps.Mail, cli.logger, cli.conf)
	require.NoError(t, err)
	cli.deps.Reports = reports

	runCLITests(t, cli, out, []cliTest{
		{name: "unknown student", args: []string{"report", "student", "S999"}, wantErr: roster.ErrNotFound},
		{name: "student", args: []string{"report", "student", "S001", "--format", "text"}, wantOut: []string{"student S001\n", "- w1\n", "Outcome"}},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	conf := testutil.NewConfig()
	out := new(bytes.Buffer)
	cli := newCommandLine(conf, testutil.NewLogger(), out)

	runCLITests(t, cli, out, []cliTest{
		{name: "inmem", args: []string{"migrate"}, wantOut: []string{"nothing to migrate"}},
	})

	conf.Database = core.DatabaseConfig{Engine: database.EngineSQLite, Path: filepath.Join(t.TempDir(), "classboard.db")}
	runCLITests(t, cli, out, []cliTest{
		{name: "sqlite", args: []string{"migrate"}, wantOut: []string{"sqlite3 database migrated"}},
		{name: "twice", args: []string{"migrate"}, wantOut: []string{"sqlite3 database migrated"}},
	})
	assert.Nil(t, cli.deps)
}

func Test_commandLine_reportClassEmail(t *testing.T) {
	cli, out := setup(t)

	mailOut := new(bytes.Buffer)
	cli.deps.Mail = emailsvc.NewConsoleServiceTo(cli.conf, cli.logger, mailOut)
	answer := `{"weakTopics":["CSS grid"],"attendanceInsight":"Mostly present","teachingAdvice":["Pair up"],` +
		`"improvementIdeas":[{"category":"Technical","idea":"Daily drills"}],"summary":"Steady progress.","classHealthScore":72}`
	reports, err := report.NewService(staticCompleter(answer), cli.deps.Roster, cli.deps.KV, cli.deps.Mail, cli.logger, cli.conf)
	require.NoError(t, err)
	cli.deps.Reports = reports

	runCLITests(t, cli, out, []cliTest{
		{name: "email", args: []string{"report", "class", "--email", "--format", "text"}, wantOut: []string{"health score: 72\n", "1. Pair up\n"}},
	})

	// delivered before the command returned
	got := mailOut.String()
	assert.Contains(t, got, "To: <instructor@classboard.test>")
	assert.Contains(t, got, "Subject: [Classboard] Class report\r\n")
	assert.Contains(t, got, "Steady progress.")
	assert.Contains(t, got, "filename=class-report.json")
}
