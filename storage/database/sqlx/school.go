package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

type courseRow struct {
	ID            string    `db:"id"`
	Name          string    `db:"name"`
	Code          string    `db:"code"`
	DurationYears int       `db:"duration_years"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row courseRow) toCourse() school.Course {
	return school.Course(row)
}

type subjectRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row subjectRow) toSubject() school.Subject {
	return school.Subject(row)
}

type SchoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*SchoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (repo *SchoolRepository) CheckCourseCodeUniqueness(ctx context.Context, code string, excludedCourses ...school.Course) error {
	exclIDs := make(pq.StringArray, len(excludedCourses))
	for i, crs := range excludedCourses {
		exclIDs[i] = crs.ID
	}

	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM course WHERE code = $1 AND NOT (id = ANY($2)))`
	if err := repo.db.GetContext(ctx, &exists, q, code, exclIDs); err != nil {
		return err
	}
	if exists {
		return school.ErrCourseCodeExists
	}
	return nil
}

func (repo *SchoolRepository) CreateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	crs.ID = uuid.New().String()

	const q = `INSERT INTO course (id, name, code, duration_years, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Name, crs.Code, crs.DurationYears, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return school.Course{}, err
	}
	return crs, nil
}

func (repo *SchoolRepository) QueryAllCourses(ctx context.Context) ([]school.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY name`); err != nil {
		return nil, err
	}
	courses := make([]school.Course, len(rows))
	for i, row := range rows {
		courses[i] = row.toCourse()
	}
	return courses, nil
}

func (repo *SchoolRepository) GetCourseByID(ctx context.Context, id string) (school.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Course{}, school.ErrCourseNotFound
		}
		return school.Course{}, err
	}
	return row.toCourse(), nil
}

func (repo *SchoolRepository) UpdateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	const q = `UPDATE course SET
			name           = COALESCE(NULLIF($2, ''), name),
			code           = COALESCE(NULLIF($3, ''), code),
			duration_years = COALESCE(NULLIF($4, 0), duration_years),
			updated_at     = $5
		WHERE id = $1
		RETURNING *`
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, q, crs.ID, crs.Name, crs.Code, crs.DurationYears, crs.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return school.Course{}, school.ErrCourseNotFound
		}
		return school.Course{}, err
	}
	return row.toCourse(), nil
}

func (repo *SchoolRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *SchoolRepository) CheckSubjectCodeUniqueness(ctx context.Context, code string, excludedSubjects ...school.Subject) error {
	exclIDs := make(pq.StringArray, len(excludedSubjects))
	for i, sub := range excludedSubjects {
		exclIDs[i] = sub.ID
	}

	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM subject WHERE code = $1 AND NOT (id = ANY($2)))`
	if err := repo.db.GetContext(ctx, &exists, q, code, exclIDs); err != nil {
		return err
	}
	if exists {
		return school.ErrSubjectCodeExists
	}
	return nil
}

func (repo *SchoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	sub.ID = uuid.New().String()

	const q = `INSERT INTO subject (id, name, code, course_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, sub.ID, sub.Name, sub.Code, sub.CourseID, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return school.Subject{}, err
	}
	return sub, nil
}

func (repo *SchoolRepository) FilterSubjects(ctx context.Context, filter *school.SubjectFilter) ([]school.Subject, error) {
	if filter == nil {
		filter = &school.SubjectFilter{}
	}

	const q = `SELECT s.* FROM subject s
		WHERE ($1 = '' OR s.course_id = $1::uuid)
		  AND ($2 = '' OR EXISTS (
			SELECT 1 FROM teacher_subject ts WHERE ts.subject_id = s.id AND ts.teacher_id = $2::uuid))
		ORDER BY s.name`
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, q, filter.CourseID, filter.TeacherID); err != nil {
		return nil, err
	}
	subjects := make([]school.Subject, len(rows))
	for i, row := range rows {
		subjects[i] = row.toSubject()
	}
	return subjects, nil
}

func (repo *SchoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, err
	}
	return row.toSubject(), nil
}

func (repo *SchoolRepository) UpdateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	const q = `UPDATE subject SET
			name       = COALESCE(NULLIF($2, ''), name),
			code       = COALESCE(NULLIF($3, ''), code),
			updated_at = $4
		WHERE id = $1
		RETURNING *`
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, q, sub.ID, sub.Name, sub.Code, sub.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return school.Subject{}, school.ErrSubjectNotFound
		}
		return school.Subject{}, err
	}
	return row.toSubject(), nil
}

func (repo *SchoolRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = ANY($1)`, pq.StringArray(ids))
	return err
}

func (repo *SchoolRepository) UpsertEnrollment(ctx context.Context, studentID, courseID string) error {
	const q = `INSERT INTO enrollment (student_id, course_id, enrolled_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (student_id) DO UPDATE SET course_id = EXCLUDED.course_id, enrolled_at = EXCLUDED.enrolled_at`
	_, err := repo.db.ExecContext(ctx, q, studentID, courseID, time.Now().UTC())
	return err
}

func (repo *SchoolRepository) GetEnrolledCourseID(ctx context.Context, studentID string) (string, error) {
	var courseID string
	err := repo.db.GetContext(ctx, &courseID, `SELECT course_id FROM enrollment WHERE student_id = $1`, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", school.ErrNotEnrolled
		}
		return "", err
	}
	return courseID, nil
}

func (repo *SchoolRepository) QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error) {
	const q = `SELECT u.* FROM "user" u
		JOIN enrollment e ON e.student_id = u.id
		WHERE e.course_id = $1
		ORDER BY u.name`
	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, err
	}
	return rowsToUsers(rows), nil
}

func (repo *SchoolRepository) AssignTeacher(ctx context.Context, teacherID, subjectID string) error {
	const q = `INSERT INTO teacher_subject (teacher_id, subject_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	_, err := repo.db.ExecContext(ctx, q, teacherID, subjectID)
	return err
}

func (repo *SchoolRepository) UnassignTeacher(ctx context.Context, teacherID, subjectID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM teacher_subject WHERE teacher_id = $1 AND subject_id = $2`, teacherID, subjectID)
	return err
}

func (repo *SchoolRepository) IsTeacherAssigned(ctx context.Context, teacherID, subjectID string) (bool, error) {
	var assigned bool
	const q = `SELECT EXISTS (SELECT 1 FROM teacher_subject WHERE teacher_id = $1 AND subject_id = $2)`
	if err := repo.db.GetContext(ctx, &assigned, q, teacherID, subjectID); err != nil {
		return false, err
	}
	return assigned, nil
}
