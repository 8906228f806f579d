package school_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
	testutil "github.com/trezcool/chuo/tests"
)

type fixture struct {
	svc     school.ServiceInterface
	usrRepo user.Repository
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return &fixture{
		svc:     school.NewService(dummydb.NewSchoolRepository(db)),
		usrRepo: dummydb.NewUserRepository(db),
	}
}

func (fix *fixture) createCourse(t *testing.T, name, code string) school.Course {
	t.Helper()
	crs, err := fix.svc.CreateCourse(context.Background(), school.NewCourse{Name: name, Code: code, DurationYears: 3})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func (fix *fixture) createSubject(t *testing.T, courseID, name, code string) school.Subject {
	t.Helper()
	sub, err := fix.svc.CreateSubject(context.Background(), school.NewSubject{Name: name, Code: code, CourseID: courseID})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func (fix *fixture) createStudent(t *testing.T, name, uname string) user.User {
	t.Helper()
	return testutil.CreateUser(t, fix.usrRepo, name, uname, uname+"@test.cd", "", []string{user.RoleStudent}, true)
}

func Test_schoolService_courses(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	cs := fix.createCourse(t, "Computer Science", "cs")

	t.Run("code uniqueness", func(t *testing.T) {
		err := fix.svc.CheckCourseCodeUniqueness(ctx, "cs")
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CheckCourseCodeUniqueness() error = %v; want ValidationError", err)
		}
	})

	t.Run("own code excluded on update", func(t *testing.T) {
		if err := fix.svc.CheckCourseCodeUniqueness(ctx, "cs", cs); err != nil {
			t.Errorf("CheckCourseCodeUniqueness() failed: %v", err)
		}
	})

	t.Run("update keeps id", func(t *testing.T) {
		crs, err := fix.svc.UpdateCourse(ctx, cs.ID, school.UpdateCourse{Name: "CompSci", Code: cs.Code, DurationYears: 4})
		if err != nil {
			t.Fatalf("UpdateCourse() failed: %v", err)
		}
		assert.Equal(t, cs.ID, crs.ID)
		assert.Equal(t, 4, crs.DurationYears)
	})

	t.Run("get unknown", func(t *testing.T) {
		_, err := fix.svc.GetCourse(ctx, "e0b52a50-2c38-4a59-96ef-b744a4c1c623")
		assert.Equal(t, school.ErrCourseNotFound, err)
	})
}

func Test_schoolService_enrollment(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	cs := fix.createCourse(t, "Computer Science", "cs")
	biz := fix.createCourse(t, "Business", "biz")
	alice := fix.createStudent(t, "Alice", "alice1")

	t.Run("not enrolled", func(t *testing.T) {
		_, err := fix.svc.EnrolledCourse(ctx, alice.ID)
		assert.Equal(t, school.ErrNotEnrolled, err)
	})

	t.Run("unknown course", func(t *testing.T) {
		err := fix.svc.Enroll(ctx, alice.ID, "e0b52a50-2c38-4a59-96ef-b744a4c1c623")
		assert.Equal(t, school.ErrCourseNotFound, err)
	})

	t.Run("enrolled", func(t *testing.T) {
		if err := fix.svc.Enroll(ctx, alice.ID, cs.ID); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		crs, err := fix.svc.EnrolledCourse(ctx, alice.ID)
		if err != nil {
			t.Fatalf("EnrolledCourse() failed: %v", err)
		}
		assert.Equal(t, cs.ID, crs.ID)
	})

	// a student belongs to exactly one course; re-enrolling moves them
	t.Run("re-enrolling moves the student", func(t *testing.T) {
		if err := fix.svc.Enroll(ctx, alice.ID, biz.ID); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
		crs, err := fix.svc.EnrolledCourse(ctx, alice.ID)
		if err != nil {
			t.Fatalf("EnrolledCourse() failed: %v", err)
		}
		assert.Equal(t, biz.ID, crs.ID)

		students, err := fix.svc.CourseStudents(ctx, cs.ID)
		if err != nil {
			t.Fatalf("CourseStudents() failed: %v", err)
		}
		assert.Empty(t, students)
	})
}

func Test_schoolService_roster(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	cs := fix.createCourse(t, "Computer Science", "cs")
	biz := fix.createCourse(t, "Business", "biz")
	algo := fix.createSubject(t, cs.ID, "Algorithms", "cs101")

	bob := fix.createStudent(t, "Bob", "bob111")
	alice := fix.createStudent(t, "Alice", "alice1")
	dave := fix.createStudent(t, "Dave", "dave11")

	for _, stu := range []user.User{bob, alice} {
		if err := fix.svc.Enroll(ctx, stu.ID, cs.ID); err != nil {
			t.Fatalf("Enroll() failed: %v", err)
		}
	}
	if err := fix.svc.Enroll(ctx, dave.ID, biz.ID); err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}

	t.Run("unknown subject", func(t *testing.T) {
		_, err := fix.svc.Roster(ctx, "e0b52a50-2c38-4a59-96ef-b744a4c1c623")
		assert.Equal(t, school.ErrSubjectNotFound, err)
	})

	t.Run("course students ordered by name", func(t *testing.T) {
		students, err := fix.svc.Roster(ctx, algo.ID)
		if err != nil {
			t.Fatalf("Roster() failed: %v", err)
		}
		if assert.Len(t, students, 2) {
			assert.Equal(t, alice.ID, students[0].ID)
			assert.Equal(t, bob.ID, students[1].ID)
		}
	})
}

func Test_schoolService_teacherAssignment(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	cs := fix.createCourse(t, "Computer Science", "cs")
	algo := fix.createSubject(t, cs.ID, "Algorithms", "cs101")
	db := fix.createSubject(t, cs.ID, "Databases", "cs102")
	teacher := testutil.CreateUser(t, fix.usrRepo, "Teach Err", "teacher1", "teacher1@test.cd", "", []string{user.RoleTeacher}, true)

	t.Run("unknown subject", func(t *testing.T) {
		err := fix.svc.AssignTeacher(ctx, teacher.ID, "e0b52a50-2c38-4a59-96ef-b744a4c1c623")
		assert.Equal(t, school.ErrSubjectNotFound, err)
	})

	t.Run("assigned to many subjects", func(t *testing.T) {
		for _, sub := range []school.Subject{algo, db} {
			if err := fix.svc.AssignTeacher(ctx, teacher.ID, sub.ID); err != nil {
				t.Fatalf("AssignTeacher() failed: %v", err)
			}
		}
		subjects, err := fix.svc.QuerySubjects(ctx, &school.SubjectFilter{TeacherID: teacher.ID})
		if err != nil {
			t.Fatalf("QuerySubjects() failed: %v", err)
		}
		assert.Len(t, subjects, 2)

		if err := fix.svc.EnsureAssigned(ctx, teacher.ID, algo.ID); err != nil {
			t.Errorf("EnsureAssigned() failed: %v", err)
		}
	})

	t.Run("unassigned", func(t *testing.T) {
		if err := fix.svc.UnassignTeacher(ctx, teacher.ID, db.ID); err != nil {
			t.Fatalf("UnassignTeacher() failed: %v", err)
		}
		err := fix.svc.EnsureAssigned(ctx, teacher.ID, db.ID)
		assert.Equal(t, school.ErrNotAssigned, err)
	})
}
