package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core/report"
	emailsvc "github.com/trezcool/classboard/services/email"
)

const (
	classAnswer = `{"weakTopics":["Logic"],"attendanceInsight":"ok","teachingAdvice":["Pair up"],` +
		`"improvementIdeas":[{"category":"Technical","idea":"Drills"}],"summary":"Good class","classHealthScore":81}`
	studentAnswer = "```json\n" + `{"problemsDetected":["p"],"improvementIdeas":["i"],"weeklyActionPlan":["w1","w2","w3","w4"],` +
		`"detailedPlan":"d","psychologicalProfile":"pp","technicalDrills":["t"],"expectedOutcome":"e"}` + "\n```"
)

func Test_reportApi_class(t *testing.T) {
	emailsvc.ResetSentMessages()
	defer emailsvc.ResetSentMessages()
	app := setup(t)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "not generated yet",
			method:   http.MethodGet,
			path:     "/v1/reports/class",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "email needs a report",
			method:   http.MethodPost,
			path:     "/v1/reports/class/email",
			wantCode: http.StatusNotFound,
		},
	})

	app.ai.answer("Here you go: not json", classAnswer)

	req, rec := newRequest(http.MethodPost, "/v1/reports/class")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var e kindErr
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, "AIResponseInvalid", e.Kind)

	req, rec = newRequest(http.MethodPost, "/v1/reports/class")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rep report.ClassReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "Good class", rep.Summary)

	req, rec = newRequest(http.MethodGet, "/v1/reports/class")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodPost, "/v1/reports/class/email")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, emailsvc.SentMessages, 1)
}

func Test_reportApi_student(t *testing.T) {
	app := setup(t)
	app.ai.answer(studentAnswer)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "unknown student",
			method:   http.MethodPost,
			path:     "/v1/students/S999/report",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name:     "no cached report",
			method:   http.MethodGet,
			path:     "/v1/students/S001/report",
			wantCode: http.StatusNotFound,
		},
		{
			name:     "generate",
			method:   http.MethodPost,
			path:     "/v1/students/S001/report",
			wantCode: http.StatusCreated,
		},
		{
			name:     "cached",
			method:   http.MethodGet,
			path:     "/v1/students/S001/report",
			wantCode: http.StatusOK,
		},
	})

	req, rec := newRequest(http.MethodGet, "/v1/students/S001/report")
	app.ServeHTTP(rec, req)
	var rep report.StudentReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "S001", rep.StudentID)
	assert.Equal(t, []string{"w1", "w2", "w3", "w4"}, rep.WeeklyActionPlan)
}

func Test_reportApi_chat(t *testing.T) {
	app := setup(t)
	app.ai.answer("Nobody is at risk.")

	runHTTPTests(t, app, []httpTest{
		{
			name:     "blank message",
			method:   http.MethodPost,
			path:     "/v1/chat",
			body:     []byte(`{"message":"   "}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"message":"this field cannot be blank"}`),
		},
		{
			name:     "bad role",
			method:   http.MethodPost,
			path:     "/v1/chat",
			body:     []byte(`{"history":[{"role":"system","content":"x"}],"message":"hi"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "ok",
			method:   http.MethodPost,
			path:     "/v1/chat",
			body:     []byte(`{"history":[{"role":"user","content":"Hi"},{"role":"model","content":"Hello!"}],"message":"Anyone at risk?"}`),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ChatResponse{
				Reply: "Nobody is at risk.",
				History: []report.ChatMessage{
					{Role: report.RoleUser, Content: "Hi"},
					{Role: report.RoleModel, Content: "Hello!"},
					{Role: report.RoleUser, Content: "Anyone at risk?"},
					{Role: report.RoleModel, Content: "Nobody is at risk."},
				},
			}),
		},
	})

	require.Len(t, app.ai.prompts, 1)
	assert.Contains(t, app.ai.prompts[0], "Teacher: Hi\nAssistant: Hello!\n")
}
