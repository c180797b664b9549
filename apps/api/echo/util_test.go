package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/report"
	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/core/settings"
	emailsvc "github.com/trezcool/classboard/services/email"
	"github.com/trezcool/classboard/services/metrics"
	"github.com/trezcool/classboard/services/sheets"
	inmemdb "github.com/trezcool/classboard/storage/database/inmem"
	"github.com/trezcool/classboard/tests"
)

const (
	testsCSV = "No,Name,Ques 1,Ques 2,Ques 3,Ques 4,Ques 5,Total\n" +
		"5,Shwe Sin Phoo,20,18,20,20,20,98\n"
	attendanceCSV = "No,Name,Date,Attendance,Ass Status,Ass Time,Question,Desc,Arrival Time,Mark\n" +
		"5,Shwe Sin Phoo,2025-04-07,Class,Yes,Yes,Yes,Yes,Arrive,30\n"
)

type sheetResponse struct {
	status int
	body   string
}

// fakeSheets serves CSV exports by source id.
type fakeSheets struct {
	mu        sync.Mutex
	responses map[string]sheetResponse
}

func (f *fakeSheets) set(sourceID string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[sourceID] = sheetResponse{status: status, body: body}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// /d/{id}/export
	var id string
	if parts := strings.Split(r.URL.Path, "/"); len(parts) > 2 {
		id = parts[2]
	}
	f.mu.Lock()
	resp, ok := f.responses[id]
	f.mu.Unlock()
	if !ok {
		resp = sheetResponse{status: http.StatusNotFound}
	}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

type fakeCompleter struct {
	mu      sync.Mutex
	answers []string
	prompts []string
}

func (f *fakeCompleter) answer(a ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, a...)
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if len(f.answers) == 0 {
		return "", context.DeadlineExceeded
	}
	a := f.answers[0]
	f.answers = f.answers[1:]
	return a, nil
}

type testApp struct {
	Server
	sheets *fakeSheets
	ai     *fakeCompleter
	roster *roster.Service
	kv     core.KVRepository
	kvDB   *inmemdb.DB
	logger *testutil.Logger
}

func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig()
	conf.Server.DisableReqLogs = true
	conf.Sync.Timeout = 5 * time.Second
	logger := testutil.NewLogger()

	sheetSrv := &fakeSheets{responses: map[string]sheetResponse{
		"tests-sheet":      {status: http.StatusOK, body: testsCSV},
		"attendance-sheet": {status: http.StatusOK, body: attendanceCSV},
	}}
	srv := httptest.NewServer(sheetSrv)
	t.Cleanup(srv.Close)
	conf.Sheets.BaseURL = srv.URL + "/d"
	conf.Sheets.Timeout = 2 * time.Second

	// set up services
	kvDB, err := inmemdb.Open()
	require.NoError(t, err)
	kv := inmemdb.NewKVRepository(kvDB)
	settingsSvc := settings.NewService(kv, conf)
	rosterSvc := roster.NewService(roster.NewStore(roster.SampleSnapshot()), sheets.NewClient(conf, logger), settingsSvc, logger, conf)

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewSyncRecorder(reg)
	require.NoError(t, err)
	rosterSvc.Subscribe(rec.Handle)

	ai := new(fakeCompleter)
	reportSvc, err := report.NewService(ai, rosterSvc, kv, emailsvc.NewConsoleServiceMock(conf, logger), logger, conf)
	require.NoError(t, err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      logger,
		RosterSvc:   rosterSvc,
		SettingsSvc: settingsSvc,
		ReportSvc:   reportSvc,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Validate:    validate,
		Translator:  translator,
	})
	return &testApp{Server: server, sheets: sheetSrv, ai: ai, roster: rosterSvc, kv: kv, kvDB: kvDB, logger: logger}
}

type httpErr struct {
	Error string `json:"error"`
}

type kindErr struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, rec := newRequest(tc.method, tc.path, tc.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tc, rec)
		})
	}
}
