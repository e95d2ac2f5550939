package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/creds"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
)

func newTestRouter(t *testing.T) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	rosterRepo := roster.NewRepository(mock)
	h := New(
		roster.NewService(rosterRepo),
		attendance.NewService(rosterRepo, attendance.NewRepository(mock), queue.NewInMemory(8)),
		creds.NewStore(mock, nil),
	)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, mock
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecordAttendance(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery("INSERT INTO attendance").
		WithArgs("s1", "Absent", "2024-05-01", "May").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	w := doJSON(r, http.MethodPost, "/api/v1/attendance", `{"student_id":"s1","status":"Absent","date":"2024-05-01"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"month":"May"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAttendanceRejectsBadDate(t *testing.T) {
	r, mock := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/attendance", `{"student_id":"s1","status":"Absent","date":"May 1st"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAttendanceMethodNotAllowed(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/v1/attendance", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestFinalizeNothingDecided(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery("SELECT id, name, phone FROM students").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "phone"}).AddRow("s1", "Ann", "555"))

	w := doJSON(r, http.MethodPost, "/api/v1/attendance/finalize", `{"marks":{}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRequiresBothFields(t *testing.T) {
	r, mock := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/login", `{"api_key":"key-1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginStoresCredentials(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectExec("DELETE FROM user_credentials").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("INSERT INTO user_credentials").
		WithArgs("key-1", "dev-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	w := doJSON(r, http.MethodPost, "/api/v1/login", `{"api_key":"key-1","device_id":"dev-1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddStudentValidationMessage(t *testing.T) {
	r, mock := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/students", `{"name":"  ","phone":"555"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name is required")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyReportEmptyState(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery("SELECT id, student_id, status, date, month, created_at").
		WithArgs("June").
		WillReturnRows(pgxmock.NewRows([]string{"id", "student_id", "status", "date", "month", "created_at"}))

	w := doJSON(r, http.MethodGet, "/api/v1/reports/monthly?month=June", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"present":[]`)
	assert.Contains(t, w.Body.String(), `"absent":[]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
