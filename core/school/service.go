package school

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/user"
)

var (
	// errors
	ErrCourseNotFound    = errors.New("course not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrCourseCodeExists  = errors.New("a course with this code already exists")
	ErrSubjectCodeExists = errors.New("a subject with this code already exists")
	ErrNotEnrolled       = errors.New("student is not enrolled in any course")
	ErrNotAssigned       = errors.New("teacher is not assigned to this subject")
)

type (
	Repository interface {
		CheckCourseCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		CheckSubjectCodeUniqueness(ctx context.Context, code string, excludedSubjects ...Subject) error
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		FilterSubjects(ctx context.Context, filter *SubjectFilter) ([]Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...string) error

		// UpsertEnrollment moves the student to the given course;
		// a student belongs to exactly one course at a time.
		UpsertEnrollment(ctx context.Context, studentID, courseID string) error
		GetEnrolledCourseID(ctx context.Context, studentID string) (string, error)
		// QueryStudentsByCourse returns enrolled students ordered by name.
		QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error)

		AssignTeacher(ctx context.Context, teacherID, subjectID string) error
		UnassignTeacher(ctx context.Context, teacherID, subjectID string) error
		IsTeacherAssigned(ctx context.Context, teacherID, subjectID string) (bool, error)
	}

	ServiceInterface interface {
		CheckCourseCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error
		CreateCourse(ctx context.Context, nc NewCourse) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		DeleteCourses(ctx context.Context, ids ...string) error

		CheckSubjectCodeUniqueness(ctx context.Context, code string, exclSubjects ...Subject) error
		CreateSubject(ctx context.Context, ns NewSubject) (Subject, error)
		QuerySubjects(ctx context.Context, filter *SubjectFilter) ([]Subject, error)
		GetSubject(ctx context.Context, id string) (Subject, error)
		UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error)
		DeleteSubjects(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, studentID, courseID string) error
		EnrolledCourse(ctx context.Context, studentID string) (Course, error)
		// CourseStudents returns the students enrolled in a course, ordered by name.
		CourseStudents(ctx context.Context, courseID string) ([]user.User, error)
		// Roster returns the authoritative set of students that may be
		// marked or graded for the given subject.
		Roster(ctx context.Context, subjectID string) ([]user.User, error)

		AssignTeacher(ctx context.Context, teacherID, subjectID string) error
		UnassignTeacher(ctx context.Context, teacherID, subjectID string) error
		// EnsureAssigned fails with ErrNotAssigned unless the teacher is
		// assigned to the subject.
		EnsureAssigned(ctx context.Context, teacherID, subjectID string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) CheckCourseCodeUniqueness(ctx context.Context, code string, exclCourses ...Course) error {
	if err := svc.repo.CheckCourseCodeUniqueness(ctx, code, exclCourses...); err != nil {
		if err == ErrCourseCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateCourse(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Name:          nc.Name,
		Code:          nc.Code,
		DurationYears: nc.DurationYears,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *service) QueryCourses(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	return svc.repo.UpdateCourse(ctx, Course{
		ID:            id,
		Name:          uc.Name,
		Code:          uc.Code,
		DurationYears: uc.DurationYears,
		UpdatedAt:     time.Now().UTC(),
	})
}

func (svc *service) DeleteCourses(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *service) CheckSubjectCodeUniqueness(ctx context.Context, code string, exclSubjects ...Subject) error {
	if err := svc.repo.CheckSubjectCodeUniqueness(ctx, code, exclSubjects...); err != nil {
		if err == ErrSubjectCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	return svc.repo.CreateSubject(ctx, Subject{
		Name:      ns.Name,
		Code:      ns.Code,
		CourseID:  ns.CourseID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) QuerySubjects(ctx context.Context, filter *SubjectFilter) ([]Subject, error) {
	return svc.repo.FilterSubjects(ctx, filter)
}

func (svc *service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *service) UpdateSubject(ctx context.Context, id string, us UpdateSubject) (Subject, error) {
	return svc.repo.UpdateSubject(ctx, Subject{
		ID:        id,
		Name:      us.Name,
		Code:      us.Code,
		UpdatedAt: time.Now().UTC(),
	})
}

func (svc *service) DeleteSubjects(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}

func (svc *service) Enroll(ctx context.Context, studentID, courseID string) error {
	if _, err := svc.GetCourse(ctx, courseID); err != nil {
		return err
	}
	return svc.repo.UpsertEnrollment(ctx, studentID, courseID)
}

func (svc *service) EnrolledCourse(ctx context.Context, studentID string) (Course, error) {
	courseID, err := svc.repo.GetEnrolledCourseID(ctx, studentID)
	if err != nil {
		return Course{}, err
	}
	return svc.GetCourse(ctx, courseID)
}

func (svc *service) CourseStudents(ctx context.Context, courseID string) ([]user.User, error) {
	if _, err := svc.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentsByCourse(ctx, courseID)
}

func (svc *service) Roster(ctx context.Context, subjectID string) ([]user.User, error) {
	sub, err := svc.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryStudentsByCourse(ctx, sub.CourseID)
}

func (svc *service) AssignTeacher(ctx context.Context, teacherID, subjectID string) error {
	if _, err := svc.GetSubject(ctx, subjectID); err != nil {
		return err
	}
	return svc.repo.AssignTeacher(ctx, teacherID, subjectID)
}

func (svc *service) UnassignTeacher(ctx context.Context, teacherID, subjectID string) error {
	return svc.repo.UnassignTeacher(ctx, teacherID, subjectID)
}

func (svc *service) EnsureAssigned(ctx context.Context, teacherID, subjectID string) error {
	assigned, err := svc.repo.IsTeacherAssigned(ctx, teacherID, subjectID)
	if err != nil {
		return err
	}
	if !assigned {
		return ErrNotAssigned
	}
	return nil
}
