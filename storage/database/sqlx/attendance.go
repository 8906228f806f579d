package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/attendance"
)

type attendanceRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	SubjectID string    `db:"subject_id"`
	TeacherID string    `db:"teacher_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row attendanceRow) toRecord() attendance.Record {
	rec := attendance.Record(row)
	rec.Date = rec.Date.UTC()
	return rec
}

type AttendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*AttendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// UpsertRecords writes the whole batch in one transaction; the
// (student, subject, date) key makes resubmission overwrite.
func (repo *AttendanceRepository) UpsertRecords(ctx context.Context, recs []attendance.Record) (int, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning tx")
	}

	const q = `INSERT INTO attendance_record (id, student_id, subject_id, teacher_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (student_id, subject_id, date)
		DO UPDATE SET teacher_id = EXCLUDED.teacher_id, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`
	for _, rec := range recs {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if _, err = tx.ExecContext(ctx, q,
			rec.ID, rec.StudentID, rec.SubjectID, rec.TeacherID,
			rec.Date, rec.Status, rec.CreatedAt, rec.UpdatedAt,
		); err != nil {
			_ = tx.Rollback()
			return 0, errors.Wrap(err, "upserting attendance record")
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing tx")
	}
	return len(recs), nil
}

func (repo *AttendanceRepository) FilterRecords(ctx context.Context, filter *attendance.RecordFilter) ([]attendance.Record, error) {
	if filter == nil {
		filter = &attendance.RecordFilter{}
	}

	const q = `SELECT * FROM attendance_record
		WHERE ($1 = '' OR student_id = $1::uuid)
		  AND ($2 = '' OR subject_id = $2::uuid)
		  AND ($3 = '' OR teacher_id = $3::uuid)
		  AND ($4::date IS NULL OR date = $4::date)
		ORDER BY date DESC`
	var date interface{}
	if !filter.Date.IsZero() {
		date = filter.Date
	}

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.StudentID, filter.SubjectID, filter.TeacherID, date); err != nil {
		return nil, err
	}
	recs := make([]attendance.Record, len(rows))
	for i, row := range rows {
		recs[i] = row.toRecord()
	}
	return recs, nil
}
