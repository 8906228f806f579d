package dashboard_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/chuo/core/attendance"
	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/dashboard"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
	"github.com/trezcool/chuo/storage/files"
	testutil "github.com/trezcool/chuo/tests"
)

type fixture struct {
	schoolSvc     school.ServiceInterface
	attendanceSvc attendance.ServiceInterface
	contentSvc    content.ServiceInterface
	dashSvc       dashboard.ServiceInterface

	attRepo *dummydb.AttendanceRepository
	cntRepo *dummydb.ContentRepository

	teacher  user.User
	student  user.User
	course   school.Course
	subjects []school.Subject
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	schRepo := dummydb.NewSchoolRepository(db)
	attRepo := dummydb.NewAttendanceRepository(db)
	cntRepo := dummydb.NewContentRepository(db)
	logger := testutil.NewLogger()

	schSvc := school.NewService(schRepo)
	attSvc := attendance.NewService(attRepo, schSvc)
	cntSvc := content.NewService(cntRepo, schSvc, files.NewDummyStorage(), logger)

	fix := &fixture{
		schoolSvc:     schSvc,
		attendanceSvc: attSvc,
		contentSvc:    cntSvc,
		dashSvc:       dashboard.NewService(schSvc, attSvc, cntSvc, logger),
		attRepo:       attRepo,
		cntRepo:       cntRepo,
	}

	fix.teacher = testutil.CreateUser(t, usrRepo, "Teach Err", "teacher1", "teacher1@test.cd", "", []string{user.RoleTeacher}, true)
	fix.student = testutil.CreateUser(t, usrRepo, "Stu Dent", "student1", "student1@test.cd", "", []string{user.RoleStudent}, true)

	fix.course, err = fix.schoolSvc.CreateCourse(ctx, school.NewCourse{Name: "Computer Science", Code: "cs", DurationYears: 3})
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	for _, s := range []struct{ name, code string }{{"Algorithms", "cs101"}, {"Databases", "cs102"}} {
		sub, err := fix.schoolSvc.CreateSubject(ctx, school.NewSubject{Name: s.name, Code: s.code, CourseID: fix.course.ID})
		if err != nil {
			t.Fatalf("setup() failed: %v", err)
		}
		fix.subjects = append(fix.subjects, sub)
		if err = fix.schoolSvc.AssignTeacher(ctx, fix.teacher.ID, sub.ID); err != nil {
			t.Fatalf("setup() failed: %v", err)
		}
	}
	if err = fix.schoolSvc.Enroll(ctx, fix.student.ID, fix.course.ID); err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	return fix
}

func upload(name, data string) *content.Upload {
	return &content.Upload{Filename: name, Size: int64(len(data)), Content: strings.NewReader(data)}
}

func Test_dashboardService_StudentDashboard(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	// two sessions in Algorithms: one present, one absent
	for i, status := range []string{attendance.StatusPresent, attendance.StatusAbsent} {
		date := time.Now().UTC().AddDate(0, 0, -(i + 1)).Format("2006-01-02")
		if _, err := fix.attendanceSvc.Submit(ctx, fix.teacher.ID, attendance.NewBatch{
			SubjectID: fix.subjects[0].ID,
			Date:      date,
			Entries:   []attendance.Entry{{StudentID: fix.student.ID, Status: status}},
		}); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
	}

	// one submitted assignment, one past-deadline unsubmitted one
	asg1, err := fix.contentSvc.CreateAssignment(ctx, fix.teacher.ID, content.NewAssignment{
		SubjectID: fix.subjects[0].ID,
		Title:     "Sorting",
		Deadline:  time.Now().UTC().Add(24 * time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	if _, err = fix.contentSvc.SubmitAssignment(ctx, fix.student.ID, asg1.ID, upload("answer.pdf", "v1")); err != nil {
		t.Fatalf("SubmitAssignment() failed: %v", err)
	}
	asg2, err := fix.contentSvc.CreateAssignment(ctx, fix.teacher.ID, content.NewAssignment{
		SubjectID: fix.subjects[1].ID,
		Title:     "Joins",
		Deadline:  time.Now().UTC().Add(time.Millisecond),
	}, nil)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // let asg2's deadline lapse

	if _, err = fix.contentSvc.CreateNote(ctx, fix.teacher.ID, content.NewNote{
		SubjectID: fix.subjects[0].ID, Title: "Lecture 1",
	}, nil); err != nil {
		t.Fatalf("CreateNote() failed: %v", err)
	}
	if _, err = fix.contentSvc.CreateNotice(ctx, fix.teacher.ID, content.NewNotice{
		CourseID: fix.course.ID, Title: "Exams start Monday",
	}); err != nil {
		t.Fatalf("CreateNotice() failed: %v", err)
	}

	dash, err := fix.dashSvc.StudentDashboard(ctx, fix.student.ID)
	if err != nil {
		t.Fatalf("StudentDashboard() failed: %v", err)
	}

	assert.Equal(t, fix.course.ID, dash.Course.ID)
	assert.Len(t, dash.Subjects, 2)
	assert.Len(t, dash.Notes, 1)
	assert.Len(t, dash.Notices, 1)
	assert.Equal(t, 50, dash.OverallAttendance) // only Algorithms has sessions

	if assert.Len(t, dash.Assignments, 2) {
		byID := make(map[string]dashboard.AssignmentStatus, 2)
		for _, as := range dash.Assignments {
			byID[as.Assignment.ID] = as
		}
		assert.True(t, byID[asg1.ID].Submitted)
		assert.False(t, byID[asg1.ID].Overdue)
		assert.False(t, byID[asg2.ID].Submitted)
		assert.True(t, byID[asg2.ID].Overdue)
	}
}

func Test_dashboardService_StudentDashboard_notEnrolled(t *testing.T) {
	fix := setup(t)

	_, err := fix.dashSvc.StudentDashboard(context.Background(), fix.teacher.ID)
	assert.Equal(t, school.ErrNotEnrolled, err)
}

func Test_dashboardService_StudentDashboard_degradation(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	if _, err := fix.contentSvc.CreateNotice(ctx, fix.teacher.ID, content.NewNotice{
		CourseID: fix.course.ID, Title: "Exams start Monday",
	}); err != nil {
		t.Fatalf("CreateNotice() failed: %v", err)
	}

	// a failing content store must not take the whole dashboard down
	fix.cntRepo.FailFilters = errors.New("db is down")
	dash, err := fix.dashSvc.StudentDashboard(ctx, fix.student.ID)
	if err != nil {
		t.Fatalf("StudentDashboard() failed: %v", err)
	}
	assert.Equal(t, fix.course.ID, dash.Course.ID)
	assert.Len(t, dash.Subjects, 2)
	assert.Empty(t, dash.Assignments)
	assert.Empty(t, dash.Notices)
}

func Test_dashboardService_TeacherSummary(t *testing.T) {
	fix := setup(t)
	ctx := context.Background()

	asg, err := fix.contentSvc.CreateAssignment(ctx, fix.teacher.ID, content.NewAssignment{
		SubjectID: fix.subjects[0].ID,
		Title:     "Sorting",
		Deadline:  time.Now().UTC().Add(24 * time.Hour),
	}, nil)
	if err != nil {
		t.Fatalf("CreateAssignment() failed: %v", err)
	}
	if _, err = fix.contentSvc.SubmitAssignment(ctx, fix.student.ID, asg.ID, upload("answer.pdf", "v1")); err != nil {
		t.Fatalf("SubmitAssignment() failed: %v", err)
	}
	if _, err = fix.attendanceSvc.Submit(ctx, fix.teacher.ID, attendance.NewBatch{
		SubjectID: fix.subjects[0].ID,
		Date:      time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
		Entries:   []attendance.Entry{{StudentID: fix.student.ID, Status: attendance.StatusPresent}},
	}); err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	sum, err := fix.dashSvc.TeacherSummary(ctx, fix.teacher.ID)
	if err != nil {
		t.Fatalf("TeacherSummary() failed: %v", err)
	}

	assert.Len(t, sum.Subjects, 2)
	if assert.Len(t, sum.Assignments, 1) {
		assert.Equal(t, asg.ID, sum.Assignments[0].Assignment.ID)
		assert.Equal(t, 1, sum.Assignments[0].Submitted)
	}
	if assert.Len(t, sum.Sessions, 2) {
		for _, ss := range sum.Sessions {
			if ss.Subject.ID == fix.subjects[0].ID {
				assert.Len(t, ss.Sessions, 1)
				assert.Equal(t, 1, ss.Sessions[0].Present)
			} else {
				assert.Empty(t, ss.Sessions)
			}
		}
	}
}
