package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportFixture(t *testing.T, names map[string]string) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	svc := NewService(&fakeRoster{names: names}, NewRepository(mock), &captureQueue{})
	return svc, mock
}

func attendanceRows(recs ...Record) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"id", "student_id", "status", "date", "month", "created_at"})
	for _, rec := range recs {
		rows.AddRow(rec.ID, rec.StudentID, string(rec.Status), rec.Date, rec.Month, time.Time{})
	}
	return rows
}

func TestMonthlyReportDedupsAbsencesPerStudentPerDay(t *testing.T) {
	svc, mock := newReportFixture(t, map[string]string{"s1": "Ann"})
	mock.ExpectQuery("SELECT id, student_id, status, date, month, created_at").
		WithArgs("May").
		WillReturnRows(attendanceRows(
			Record{ID: 1, StudentID: "s1", Status: StatusAbsent, Date: "2024-05-01", Month: "May"},
			Record{ID: 2, StudentID: "s1", Status: StatusAbsent, Date: "2024-05-01", Month: "May"},
			Record{ID: 3, StudentID: "s1", Status: StatusAbsent, Date: "2024-05-02", Month: "May"},
		))

	report, err := svc.MonthlyReport(context.Background(), "May")

	require.NoError(t, err)
	require.Len(t, report.Absent, 2)
	assert.Equal(t, Entry{StudentID: "s1", StudentName: "Ann", Status: StatusAbsent, Date: "2024-05-01"}, report.Absent[0])
	assert.Equal(t, "2024-05-02", report.Absent[1].Date)
	assert.Empty(t, report.Present)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyReportKeepsDuplicatePresents(t *testing.T) {
	svc, mock := newReportFixture(t, map[string]string{"s1": "Ann"})
	mock.ExpectQuery("SELECT id, student_id, status, date, month, created_at").
		WithArgs("May").
		WillReturnRows(attendanceRows(
			Record{ID: 1, StudentID: "s1", Status: StatusPresent, Date: "2024-05-01", Month: "May"},
			Record{ID: 2, StudentID: "s1", Status: StatusPresent, Date: "2024-05-01", Month: "May"},
		))

	report, err := svc.MonthlyReport(context.Background(), "May")

	require.NoError(t, err)
	assert.Len(t, report.Present, 2)
	assert.Empty(t, report.Absent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyReportResolvesUnknownStudents(t *testing.T) {
	svc, mock := newReportFixture(t, map[string]string{"s1": "Ann"})
	mock.ExpectQuery("SELECT id, student_id, status, date, month, created_at").
		WithArgs("May").
		WillReturnRows(attendanceRows(
			Record{ID: 1, StudentID: "s9", Status: StatusAbsent, Date: "2024-05-01", Month: "May"},
		))

	report, err := svc.MonthlyReport(context.Background(), "May")

	require.NoError(t, err)
	require.Len(t, report.Absent, 1)
	assert.Equal(t, UnknownStudentName, report.Absent[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyReportEmptyMonth(t *testing.T) {
	svc, mock := newReportFixture(t, nil)
	mock.ExpectQuery("SELECT id, student_id, status, date, month, created_at").
		WithArgs("June").
		WillReturnRows(attendanceRows())

	report, err := svc.MonthlyReport(context.Background(), "June")

	require.NoError(t, err)
	// an empty month renders as an empty state, never an error
	assert.NotNil(t, report.Present)
	assert.NotNil(t, report.Absent)
	assert.Empty(t, report.Present)
	assert.Empty(t, report.Absent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
