package attendance

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/roster"
)

var (
	// ErrNothingToRecord means no student had a decided status.
	ErrNothingToRecord = errors.New("no attendance decisions to store")
	// ErrStudentRequired rejects a record without a student id.
	ErrStudentRequired = errors.New("student id is required")
	// ErrInvalidStatus rejects anything other than Present or Absent.
	ErrInvalidStatus = errors.New("status must be Present or Absent")
	// ErrInvalidDate rejects dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
)

const dateLayout = "2006-01-02"

// Roster supplies student data for finalize and reporting.
type Roster interface {
	List(ctx context.Context) ([]roster.Student, error)
	NamesByID(ctx context.Context, ids []string) (map[string]string, error)
}

// Service coordinates attendance finalization and monthly reporting.
type Service struct {
	roster Roster
	repo   *Repository
	q      queue.Queue
	now    func() time.Time
}

// NewService creates a service backed by the roster, the attendance
// repository and the absence-notification queue.
func NewService(r Roster, repo *Repository, q queue.Queue) *Service {
	return &Service{roster: r, repo: repo, q: q, now: time.Now}
}

// FinalizeResult reports what a finalize stored and queued.
type FinalizeResult struct {
	Records  []Record `json:"records"`
	Notified int      `json:"notifications_queued"`
}

// Finalize persists one record per decided roster student, dated and
// month-labelled from the same instant, then queues one absence job per
// absent student. The insert is a single statement; a store failure commits
// nothing. Publishing runs after the commit and can neither roll it back
// nor block later publishes.
func (s *Service) Finalize(ctx context.Context, marks map[string]Status) (FinalizeResult, error) {
	students, err := s.roster.List(ctx)
	if err != nil {
		return FinalizeResult{}, err
	}

	now := s.now()
	date := now.Format(dateLayout)
	month := now.Month().String()

	var records []Record
	var absent []roster.Student
	for _, st := range students {
		status, ok := marks[st.ID]
		if !ok || !status.Valid() {
			continue
		}
		records = append(records, Record{StudentID: st.ID, Status: status, Date: date, Month: month})
		if status == StatusAbsent {
			absent = append(absent, st)
		}
	}
	if len(records) == 0 {
		return FinalizeResult{}, ErrNothingToRecord
	}

	if err := s.repo.InsertBatch(ctx, records); err != nil {
		return FinalizeResult{}, err
	}

	queued := 0
	for _, st := range absent {
		msg, err := notify.NewAbsenceMessage(notify.Job{StudentID: st.ID, Name: st.Name, Phone: st.Phone})
		if err != nil {
			log.Printf("absence job for %s not queued: %v", st.Name, err)
			continue
		}
		if err := s.q.Publish(ctx, msg); err != nil {
			log.Printf("queue publish failed for %s: %v", st.Name, err)
			continue
		}
		queued++
	}
	return FinalizeResult{Records: records, Notified: queued}, nil
}

// RecordOne inserts a single attendance row, deriving the month label from
// the supplied date. Used by the inbound record endpoint.
func (s *Service) RecordOne(ctx context.Context, studentID string, status Status, date string) (Record, error) {
	if strings.TrimSpace(studentID) == "" {
		return Record{}, ErrStudentRequired
	}
	if !status.Valid() {
		return Record{}, ErrInvalidStatus
	}
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return Record{}, ErrInvalidDate
	}
	rec := Record{
		StudentID: studentID,
		Status:    status,
		Date:      day.Format(dateLayout),
		Month:     day.Month().String(),
	}
	return s.repo.Insert(ctx, rec)
}
