package echoapi

import (
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_settingsApi(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:     "defaults",
			method:   http.MethodGet,
			path:     "/v1/config",
			wantCode: http.StatusOK,
			wantData: []byte(`{"testsSourceId":"tests-sheet","attendanceSourceId":"attendance-sheet"}`),
		},
		{
			name:     "blank id",
			method:   http.MethodPut,
			path:     "/v1/config",
			body:     []byte(`{"testsSourceId":"  ","attendanceSourceId":"b"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"testsSourceId":"this field cannot be blank"}`),
		},
		{
			name:     "malformed body",
			method:   http.MethodPut,
			path:     "/v1/config",
			body:     []byte(`{"testsSourceId":`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "update",
			method:   http.MethodPut,
			path:     "/v1/config",
			body:     []byte(`{"testsSourceId":" new-tests ","attendanceSourceId":"new-attendance"}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"testsSourceId":"new-tests","attendanceSourceId":"new-attendance"}`),
		},
		{
			name:     "persisted",
			method:   http.MethodGet,
			path:     "/v1/config",
			wantCode: http.StatusOK,
			wantData: []byte(`{"testsSourceId":"new-tests","attendanceSourceId":"new-attendance"}`),
		},
		{
			// the fake sheet server does not know the new ids
			name:     "next sync reads the new ids",
			method:   http.MethodPost,
			path:     "/v1/sync",
			wantCode: http.StatusBadGateway,
		},
	}
	runHTTPTests(t, app, tests)
}

func Test_settingsApi_closedStore(t *testing.T) {
	app := setup(t)
	require.NoError(t, app.kvDB.Close())

	runHTTPTests(t, app, []httpTest{
		{
			name:     "store closed",
			method:   http.MethodGet,
			path:     "/v1/config",
			wantCode: http.StatusInternalServerError,
			wantData: []byte(`{"error":"Internal Server Error"}`),
		},
	})

	select {
	case sig := <-app.ShutdownSignal():
		assert.Equal(t, syscall.SIGTERM, sig)
	default:
		t.Error("closed store did not signal shutdown")
	}
	assert.Equal(t, 1, app.logger.Count("ERROR"))
}
