package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rollcall/internal/store"
)

// Status is a decided attendance state.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Valid reports whether s is a decided status. Anything else counts as
// undecided and yields no record.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Record is one persisted attendance decision. Records are append-only:
// nothing in the system updates or deletes them.
type Record struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	Status    Status    `json:"status"`
	Date      string    `json:"date"`
	Month     string    `json:"month"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists attendance records in Postgres.
type Repository struct {
	db store.Querier
}

// NewRepository creates a repo.
func NewRepository(db store.Querier) *Repository {
	return &Repository{db: db}
}

// Insert writes a single record.
func (r *Repository) Insert(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO attendance (student_id, status, date, month)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, rec.StudentID, string(rec.Status), rec.Date, rec.Month)
	if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
		return Record{}, fmt.Errorf("failed to insert attendance record: %w", err)
	}
	return rec, nil
}

// InsertBatch writes all records in one statement so a store failure
// commits nothing.
func (r *Repository) InsertBatch(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO attendance (student_id, status, date, month) VALUES ")
	args := make([]any, 0, len(recs)*4)
	for i, rec := range recs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 4
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, rec.StudentID, string(rec.Status), rec.Date, rec.Month)
	}
	if _, err := r.db.Exec(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to insert attendance records: %w", err)
	}
	return nil
}

// ListByMonth returns a month's records in insert order, which is the order
// the reporter's first-wins dedup relies on.
func (r *Repository) ListByMonth(ctx context.Context, month string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, student_id, status, date, month, created_at
		FROM attendance
		WHERE month = $1
		ORDER BY id
	`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.StudentID, &status, &rec.Date, &rec.Month, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		rec.Status = Status(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}
