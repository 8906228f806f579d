package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chuo/core/content"
)

type assignmentRow struct {
	ID          string      `db:"id"`
	TeacherID   string      `db:"teacher_id"`
	SubjectID   string      `db:"subject_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Deadline    time.Time   `db:"deadline"`
	FileRef     null.String `db:"file_ref"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row assignmentRow) toAssignment() content.Assignment {
	return content.Assignment{
		ID:          row.ID,
		TeacherID:   row.TeacherID,
		SubjectID:   row.SubjectID,
		Title:       row.Title,
		Description: row.Description,
		Deadline:    row.Deadline,
		FileRef:     row.FileRef.String,
		CreatedAt:   row.CreatedAt,
	}
}

type submissionRow struct {
	ID           string    `db:"id"`
	AssignmentID string    `db:"assignment_id"`
	StudentID    string    `db:"student_id"`
	FileRef      string    `db:"file_ref"`
	SubmittedAt  time.Time `db:"submitted_at"`
}

type noteRow struct {
	ID          string      `db:"id"`
	TeacherID   string      `db:"teacher_id"`
	SubjectID   string      `db:"subject_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	FileRef     null.String `db:"file_ref"`
	CreatedAt   time.Time   `db:"created_at"`
}

func (row noteRow) toNote() content.Note {
	return content.Note{
		ID:          row.ID,
		TeacherID:   row.TeacherID,
		SubjectID:   row.SubjectID,
		Title:       row.Title,
		Description: row.Description,
		FileRef:     row.FileRef.String,
		CreatedAt:   row.CreatedAt,
	}
}

func (row noteRow) toMaterial() content.Material {
	return content.Material{
		ID:          row.ID,
		TeacherID:   row.TeacherID,
		SubjectID:   row.SubjectID,
		Title:       row.Title,
		Description: row.Description,
		FileRef:     row.FileRef.String,
		CreatedAt:   row.CreatedAt,
	}
}

type noticeRow struct {
	ID          string    `db:"id"`
	TeacherID   string    `db:"teacher_id"`
	CourseID    string    `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

type ContentRepository struct {
	db *sqlx.DB
}

var _ content.Repository = (*ContentRepository)(nil) // interface compliance check

func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (repo *ContentRepository) CreateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	asg.ID = uuid.New().String()

	const q = `INSERT INTO assignment (id, teacher_id, subject_id, title, description, deadline, file_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)`
	_, err := repo.db.ExecContext(ctx, q,
		asg.ID, asg.TeacherID, asg.SubjectID, asg.Title, asg.Description, asg.Deadline, asg.FileRef, asg.CreatedAt,
	)
	if err != nil {
		return content.Assignment{}, err
	}
	return asg, nil
}

func (repo *ContentRepository) GetAssignmentByID(ctx context.Context, id string) (content.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.Assignment{}, content.ErrAssignmentNotFound
		}
		return content.Assignment{}, err
	}
	return row.toAssignment(), nil
}

func (repo *ContentRepository) FilterAssignments(ctx context.Context, filter *content.AssignmentFilter) ([]content.Assignment, error) {
	if filter == nil {
		filter = &content.AssignmentFilter{}
	}

	const q = `SELECT * FROM assignment
		WHERE ($1 = '' OR teacher_id = $1::uuid)
		  AND ($2 = '' OR subject_id = $2::uuid)
		  AND (cardinality($3::uuid[]) = 0 OR subject_id = ANY($3::uuid[]))
		ORDER BY created_at DESC`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.TeacherID, filter.SubjectID, pq.StringArray(filter.SubjectIDs)); err != nil {
		return nil, err
	}
	asgs := make([]content.Assignment, len(rows))
	for i, row := range rows {
		asgs[i] = row.toAssignment()
	}
	return asgs, nil
}

func (repo *ContentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM assignment WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *ContentRepository) UpsertSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	sub.ID = uuid.New().String()

	const q = `INSERT INTO assignment_submission (id, assignment_id, student_id, file_ref, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assignment_id, student_id)
		DO UPDATE SET file_ref = EXCLUDED.file_ref, submitted_at = EXCLUDED.submitted_at
		RETURNING *`
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, q, sub.ID, sub.AssignmentID, sub.StudentID, sub.FileRef, sub.SubmittedAt); err != nil {
		return content.Submission{}, err
	}
	return content.Submission(row), nil
}

func (repo *ContentRepository) FilterSubmissions(ctx context.Context, filter *content.SubmissionFilter) ([]content.Submission, error) {
	if filter == nil {
		filter = &content.SubmissionFilter{}
	}

	const q = `SELECT * FROM assignment_submission
		WHERE ($1 = '' OR assignment_id = $1::uuid)
		  AND ($2 = '' OR student_id = $2::uuid)
		ORDER BY submitted_at DESC`
	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.AssignmentID, filter.StudentID); err != nil {
		return nil, err
	}
	subs := make([]content.Submission, len(rows))
	for i, row := range rows {
		subs[i] = content.Submission(row)
	}
	return subs, nil
}

func (repo *ContentRepository) CreateNote(ctx context.Context, nt content.Note) (content.Note, error) {
	nt.ID = uuid.New().String()

	const q = `INSERT INTO note (id, teacher_id, subject_id, title, description, file_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err := repo.db.ExecContext(ctx, q, nt.ID, nt.TeacherID, nt.SubjectID, nt.Title, nt.Description, nt.FileRef, nt.CreatedAt)
	if err != nil {
		return content.Note{}, err
	}
	return nt, nil
}

func (repo *ContentRepository) GetNoteByID(ctx context.Context, id string) (content.Note, error) {
	var row noteRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM note WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.Note{}, content.ErrNoteNotFound
		}
		return content.Note{}, err
	}
	return row.toNote(), nil
}

func (repo *ContentRepository) FilterNotes(ctx context.Context, filter *content.NoteFilter) ([]content.Note, error) {
	if filter == nil {
		filter = &content.NoteFilter{}
	}

	const q = `SELECT * FROM note
		WHERE ($1 = '' OR teacher_id = $1::uuid)
		  AND ($2 = '' OR subject_id = $2::uuid)
		  AND (cardinality($3::uuid[]) = 0 OR subject_id = ANY($3::uuid[]))
		ORDER BY created_at DESC`
	var rows []noteRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.TeacherID, filter.SubjectID, pq.StringArray(filter.SubjectIDs)); err != nil {
		return nil, err
	}
	notes := make([]content.Note, len(rows))
	for i, row := range rows {
		notes[i] = row.toNote()
	}
	return notes, nil
}

func (repo *ContentRepository) DeleteNotesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM note WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *ContentRepository) CreateMaterial(ctx context.Context, mat content.Material) (content.Material, error) {
	mat.ID = uuid.New().String()

	const q = `INSERT INTO study_material (id, teacher_id, subject_id, title, description, file_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err := repo.db.ExecContext(ctx, q, mat.ID, mat.TeacherID, mat.SubjectID, mat.Title, mat.Description, mat.FileRef, mat.CreatedAt)
	if err != nil {
		return content.Material{}, err
	}
	return mat, nil
}

func (repo *ContentRepository) GetMaterialByID(ctx context.Context, id string) (content.Material, error) {
	var row noteRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM study_material WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.Material{}, content.ErrMaterialNotFound
		}
		return content.Material{}, err
	}
	return row.toMaterial(), nil
}

func (repo *ContentRepository) FilterMaterials(ctx context.Context, filter *content.MaterialFilter) ([]content.Material, error) {
	if filter == nil {
		filter = &content.MaterialFilter{}
	}

	const q = `SELECT * FROM study_material
		WHERE ($1 = '' OR teacher_id = $1::uuid)
		  AND ($2 = '' OR subject_id = $2::uuid)
		  AND (cardinality($3::uuid[]) = 0 OR subject_id = ANY($3::uuid[]))
		ORDER BY created_at DESC`
	var rows []noteRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.TeacherID, filter.SubjectID, pq.StringArray(filter.SubjectIDs)); err != nil {
		return nil, err
	}
	mats := make([]content.Material, len(rows))
	for i, row := range rows {
		mats[i] = row.toMaterial()
	}
	return mats, nil
}

func (repo *ContentRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM study_material WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *ContentRepository) CreateNotice(ctx context.Context, ntc content.Notice) (content.Notice, error) {
	ntc.ID = uuid.New().String()

	const q = `INSERT INTO notice (id, teacher_id, course_id, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, ntc.ID, ntc.TeacherID, ntc.CourseID, ntc.Title, ntc.Description, ntc.CreatedAt)
	if err != nil {
		return content.Notice{}, err
	}
	return ntc, nil
}

func (repo *ContentRepository) GetNoticeByID(ctx context.Context, id string) (content.Notice, error) {
	var row noticeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notice WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return content.Notice{}, content.ErrNoticeNotFound
		}
		return content.Notice{}, err
	}
	return content.Notice(row), nil
}

func (repo *ContentRepository) FilterNotices(ctx context.Context, filter *content.NoticeFilter) ([]content.Notice, error) {
	if filter == nil {
		filter = &content.NoticeFilter{}
	}

	const q = `SELECT * FROM notice
		WHERE ($1 = '' OR teacher_id = $1::uuid)
		  AND ($2 = '' OR course_id = $2::uuid)
		ORDER BY created_at DESC`
	var rows []noticeRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.TeacherID, filter.CourseID); err != nil {
		return nil, err
	}
	ntcs := make([]content.Notice, len(rows))
	for i, row := range rows {
		ntcs[i] = content.Notice(row)
	}
	return ntcs, nil
}

func (repo *ContentRepository) DeleteNoticesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM notice WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}
