package attendance

import "context"

// UnknownStudentName labels records whose student left the roster.
const UnknownStudentName = "Unknown"

// Entry is one display row in the monthly report.
type Entry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Status      Status `json:"status"`
	Date        string `json:"date"`
}

// Report holds a month's present and absent display lists.
type Report struct {
	Month   string  `json:"month"`
	Present []Entry `json:"present"`
	Absent  []Entry `json:"absent"`
}

// dedupKey collapses duplicate absences per student per day. A struct key
// cannot collide the way a concatenated string key can.
type dedupKey struct {
	studentID string
	date      string
}

// MonthlyReport builds the display lists for one month label. Present rows
// pass through untouched, duplicates included; absent rows collapse to the
// first record per (student, date) in insert order. Records referencing
// students no longer on the roster resolve to "Unknown". An empty month is
// a valid report, not an error.
func (s *Service) MonthlyReport(ctx context.Context, month string) (Report, error) {
	records, err := s.repo.ListByMonth(ctx, month)
	if err != nil {
		return Report{}, err
	}

	var ids []string
	seen := make(map[string]bool)
	for _, rec := range records {
		if !seen[rec.StudentID] {
			seen[rec.StudentID] = true
			ids = append(ids, rec.StudentID)
		}
	}
	names, err := s.roster.NamesByID(ctx, ids)
	if err != nil {
		return Report{}, err
	}

	report := Report{Month: month, Present: []Entry{}, Absent: []Entry{}}
	dedup := make(map[dedupKey]bool)
	for _, rec := range records {
		name, ok := names[rec.StudentID]
		if !ok {
			name = UnknownStudentName
		}
		entry := Entry{StudentID: rec.StudentID, StudentName: name, Status: rec.Status, Date: rec.Date}
		switch rec.Status {
		case StatusPresent:
			report.Present = append(report.Present, entry)
		case StatusAbsent:
			key := dedupKey{studentID: rec.StudentID, date: rec.Date}
			if dedup[key] {
				continue
			}
			dedup[key] = true
			report.Absent = append(report.Absent, entry)
		}
	}
	return report, nil
}
