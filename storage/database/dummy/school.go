package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

type SchoolRepository struct {
	db *DB
}

var _ school.Repository = (*SchoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func assignmentKey(teacherID, subjectID string) string {
	return teacherID + "|" + subjectID
}

func (repo *SchoolRepository) CheckCourseCodeUniqueness(ctx context.Context, code string, excludedCourses ...school.Course) error {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	excluded := make(map[string]bool, len(excludedCourses))
	for _, crs := range excludedCourses {
		excluded[crs.ID] = true
	}
	for _, crs := range repo.db.course.table {
		if crs.Code == code && !excluded[crs.ID] {
			return school.ErrCourseCodeExists
		}
	}
	return nil
}

func (repo *SchoolRepository) CreateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	repo.db.course.Lock()
	defer repo.db.course.Unlock()

	crs.ID = uuid.New().String()
	repo.db.course.table[crs.ID] = &crs
	return crs, nil
}

func (repo *SchoolRepository) QueryAllCourses(ctx context.Context) ([]school.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	courses := make([]school.Course, 0, len(repo.db.course.table))
	for _, crs := range repo.db.course.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses, nil
}

func (repo *SchoolRepository) GetCourseByID(ctx context.Context, id string) (school.Course, error) {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	if crs, ok := repo.db.course.table[id]; ok {
		return *crs, nil
	}
	return school.Course{}, school.ErrCourseNotFound
}

func (repo *SchoolRepository) UpdateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	repo.db.course.Lock()
	defer repo.db.course.Unlock()

	orig, ok := repo.db.course.table[crs.ID]
	if !ok {
		return school.Course{}, school.ErrCourseNotFound
	}
	if crs.Name != "" {
		orig.Name = crs.Name
	}
	if crs.Code != "" {
		orig.Code = crs.Code
	}
	if crs.DurationYears != 0 {
		orig.DurationYears = crs.DurationYears
	}
	orig.UpdatedAt = crs.UpdatedAt
	return *orig, nil
}

func (repo *SchoolRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.course.Lock()
	defer repo.db.course.Unlock()
	for _, id := range ids {
		delete(repo.db.course.table, id)
	}
	return nil
}

func (repo *SchoolRepository) CheckSubjectCodeUniqueness(ctx context.Context, code string, excludedSubjects ...school.Subject) error {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	excluded := make(map[string]bool, len(excludedSubjects))
	for _, sub := range excludedSubjects {
		excluded[sub.ID] = true
	}
	for _, sub := range repo.db.subject.table {
		if sub.Code == code && !excluded[sub.ID] {
			return school.ErrSubjectCodeExists
		}
	}
	return nil
}

func (repo *SchoolRepository) CreateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subject.table[sub.ID] = &sub
	return sub, nil
}

func (repo *SchoolRepository) FilterSubjects(ctx context.Context, filter *school.SubjectFilter) ([]school.Subject, error) {
	repo.db.subject.RLock()
	subjects := make([]school.Subject, 0, len(repo.db.subject.table))
	for _, sub := range repo.db.subject.table {
		subjects = append(subjects, *sub)
	}
	repo.db.subject.RUnlock()

	if filter == nil {
		filter = &school.SubjectFilter{}
	}
	if filter.CourseID != "" {
		var filtered []school.Subject
		for _, sub := range subjects {
			if sub.CourseID == filter.CourseID {
				filtered = append(filtered, sub)
			}
		}
		subjects = filtered
	}
	if filter.TeacherID != "" {
		repo.db.teacherSubject.RLock()
		var filtered []school.Subject
		for _, sub := range subjects {
			if repo.db.teacherSubject.table[assignmentKey(filter.TeacherID, sub.ID)] {
				filtered = append(filtered, sub)
			}
		}
		repo.db.teacherSubject.RUnlock()
		subjects = filtered
	}

	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Name < subjects[j].Name })
	return subjects, nil
}

func (repo *SchoolRepository) GetSubjectByID(ctx context.Context, id string) (school.Subject, error) {
	repo.db.subject.RLock()
	defer repo.db.subject.RUnlock()

	if sub, ok := repo.db.subject.table[id]; ok {
		return *sub, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *SchoolRepository) UpdateSubject(ctx context.Context, sub school.Subject) (school.Subject, error) {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()

	orig, ok := repo.db.subject.table[sub.ID]
	if !ok {
		return school.Subject{}, school.ErrSubjectNotFound
	}
	if sub.Name != "" {
		orig.Name = sub.Name
	}
	if sub.Code != "" {
		orig.Code = sub.Code
	}
	orig.UpdatedAt = sub.UpdatedAt
	return *orig, nil
}

func (repo *SchoolRepository) DeleteSubjectsByID(ctx context.Context, ids ...string) error {
	repo.db.subject.Lock()
	defer repo.db.subject.Unlock()
	for _, id := range ids {
		delete(repo.db.subject.table, id)
	}
	return nil
}

func (repo *SchoolRepository) UpsertEnrollment(ctx context.Context, studentID, courseID string) error {
	repo.db.enrollment.Lock()
	defer repo.db.enrollment.Unlock()
	repo.db.enrollment.table[studentID] = courseID
	return nil
}

func (repo *SchoolRepository) GetEnrolledCourseID(ctx context.Context, studentID string) (string, error) {
	repo.db.enrollment.RLock()
	defer repo.db.enrollment.RUnlock()

	if courseID, ok := repo.db.enrollment.table[studentID]; ok {
		return courseID, nil
	}
	return "", school.ErrNotEnrolled
}

func (repo *SchoolRepository) QueryStudentsByCourse(ctx context.Context, courseID string) ([]user.User, error) {
	repo.db.enrollment.RLock()
	studentIDs := make([]string, 0)
	for studentID, crsID := range repo.db.enrollment.table {
		if crsID == courseID {
			studentIDs = append(studentIDs, studentID)
		}
	}
	repo.db.enrollment.RUnlock()

	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	students := make([]user.User, 0, len(studentIDs))
	for _, id := range studentIDs {
		if usr, ok := repo.db.user.table[id]; ok {
			students = append(students, *usr)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *SchoolRepository) AssignTeacher(ctx context.Context, teacherID, subjectID string) error {
	repo.db.teacherSubject.Lock()
	defer repo.db.teacherSubject.Unlock()
	repo.db.teacherSubject.table[assignmentKey(teacherID, subjectID)] = true
	return nil
}

func (repo *SchoolRepository) UnassignTeacher(ctx context.Context, teacherID, subjectID string) error {
	repo.db.teacherSubject.Lock()
	defer repo.db.teacherSubject.Unlock()
	delete(repo.db.teacherSubject.table, assignmentKey(teacherID, subjectID))
	return nil
}

func (repo *SchoolRepository) IsTeacherAssigned(ctx context.Context, teacherID, subjectID string) (bool, error) {
	repo.db.teacherSubject.RLock()
	defer repo.db.teacherSubject.RUnlock()
	return repo.db.teacherSubject.table[assignmentKey(teacherID, subjectID)], nil
}
