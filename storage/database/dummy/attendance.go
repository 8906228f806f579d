package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/chuo/core/attendance"
)

type AttendanceRepository struct {
	db *attendanceTable

	// FailUpserts makes UpsertRecords fail, for degradation tests.
	FailUpserts error
}

var _ attendance.Repository = (*AttendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db.attendance}
}

func recordKey(rec attendance.Record) string {
	return rec.StudentID + "|" + rec.SubjectID + "|" + rec.Date.Format("2006-01-02")
}

func (repo *AttendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) (int, error) {
	if repo.FailUpserts != nil {
		return 0, repo.FailUpserts
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range recs {
		rec := recs[i]
		key := recordKey(rec)
		if orig, ok := repo.db.table[key]; ok {
			rec.ID = orig.ID
			rec.CreatedAt = orig.CreatedAt
		} else {
			rec.ID = uuid.New().String()
		}
		repo.db.table[key] = &rec
	}
	return len(recs), nil
}

func (repo *AttendanceRepository) FilterRecords(ctx context.Context, filter *attendance.RecordFilter) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter == nil {
		filter = &attendance.RecordFilter{}
	}

	var recs []attendance.Record
	for _, rec := range repo.db.table {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.SubjectID != "" && rec.SubjectID != filter.SubjectID {
			continue
		}
		if filter.TeacherID != "" && rec.TeacherID != filter.TeacherID {
			continue
		}
		if !filter.Date.IsZero() && !rec.Date.Equal(filter.Date) {
			continue
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}
