package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/school"
)

var (
	// errors
	errFutureDate       = errors.New("date cannot be in the future")
	errDuplicateEntries = "duplicate entries for students: %s"
	errNotInRoster      = "students not in subject roster: %s"

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// UpsertRecords persists all records in a single transaction,
		// inserting or replacing on the (student, subject, date) key.
		// No record is persisted if any one of them fails.
		UpsertRecords(ctx context.Context, recs []Record) (int, error)
		FilterRecords(ctx context.Context, filter *RecordFilter) ([]Record, error)
	}

	ServiceInterface interface {
		// Submit validates and persists a whole batch, or nothing at all.
		// It returns the number of records written.
		Submit(ctx context.Context, teacherID string, nb NewBatch) (int, error)
		Query(ctx context.Context, filter *RecordFilter) ([]Record, error)
		// Sessions returns per-date present/absent tallies for a subject,
		// most recent first.
		Sessions(ctx context.Context, teacherID, subjectID string) ([]SessionSummary, error)
		// StudentSubjectStats tallies a student's attendance for a subject.
		StudentSubjectStats(ctx context.Context, studentID, subjectID string) (SubjectStats, error)
	}

	service struct {
		repo      Repository
		schoolSvc school.ServiceInterface
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, schoolSvc school.ServiceInterface) *service {
	return &service{
		repo:      repo,
		schoolSvc: schoolSvc,
	}
}

func (svc *service) Submit(ctx context.Context, teacherID string, nb NewBatch) (int, error) {
	date, err := nb.ParseDate()
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}
	// past and today are accepted; future is not
	if today := nowFunc().UTC().Truncate(24 * time.Hour); date.After(today) {
		return 0, core.NewValidationError(errFutureDate, core.FieldError{Field: "date", Error: errFutureDate.Error()})
	}

	if err := svc.schoolSvc.EnsureAssigned(ctx, teacherID, nb.SubjectID); err != nil {
		return 0, err
	}

	roster, err := svc.schoolSvc.Roster(ctx, nb.SubjectID)
	if err != nil {
		return 0, err
	}
	inRoster := make(map[string]bool, len(roster))
	for _, student := range roster {
		inRoster[student.ID] = true
	}

	// all-or-nothing: collect every offending ID so the caller can fix and resubmit
	var dupes, outsiders []string
	seen := make(map[string]bool, len(nb.Entries))
	for _, entry := range nb.Entries {
		if seen[entry.StudentID] {
			dupes = append(dupes, entry.StudentID)
			continue
		}
		seen[entry.StudentID] = true
		if !inRoster[entry.StudentID] {
			outsiders = append(outsiders, entry.StudentID)
		}
	}
	if len(dupes) > 0 {
		err := fmt.Errorf(errDuplicateEntries, strings.Join(dupes, ", "))
		return 0, core.NewValidationError(err, core.FieldError{Field: "entries", Error: err.Error()})
	}
	if len(outsiders) > 0 {
		err := fmt.Errorf(errNotInRoster, strings.Join(outsiders, ", "))
		return 0, core.NewValidationError(err, core.FieldError{Field: "entries", Error: err.Error()})
	}

	now := nowFunc().UTC()
	recs := make([]Record, 0, len(nb.Entries))
	for _, entry := range nb.Entries {
		recs = append(recs, Record{
			StudentID: entry.StudentID,
			SubjectID: nb.SubjectID,
			TeacherID: teacherID,
			Date:      date,
			Status:    entry.Status,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return svc.repo.UpsertRecords(ctx, recs)
}

func (svc *service) Query(ctx context.Context, filter *RecordFilter) ([]Record, error) {
	return svc.repo.FilterRecords(ctx, filter)
}

func (svc *service) Sessions(ctx context.Context, teacherID, subjectID string) ([]SessionSummary, error) {
	recs, err := svc.repo.FilterRecords(ctx, &RecordFilter{TeacherID: teacherID, SubjectID: subjectID})
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time]*SessionSummary)
	for _, rec := range recs {
		sess, ok := byDate[rec.Date]
		if !ok {
			sess = &SessionSummary{Date: rec.Date}
			byDate[rec.Date] = sess
		}
		if rec.Status == StatusPresent {
			sess.Present++
		} else {
			sess.Absent++
		}
	}

	sessions := make([]SessionSummary, 0, len(byDate))
	for _, sess := range byDate {
		sessions = append(sessions, *sess)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.After(sessions[j].Date) })
	return sessions, nil
}

func (svc *service) StudentSubjectStats(ctx context.Context, studentID, subjectID string) (SubjectStats, error) {
	recs, err := svc.repo.FilterRecords(ctx, &RecordFilter{StudentID: studentID, SubjectID: subjectID})
	if err != nil {
		return SubjectStats{}, err
	}

	stats := SubjectStats{Total: len(recs)}
	for _, rec := range recs {
		if rec.Status == StatusPresent {
			stats.Present++
		}
	}
	if stats.Total > 0 {
		stats.Percent = int(math.Round(float64(stats.Present) / float64(stats.Total) * 100))
	}
	return stats, nil
}
