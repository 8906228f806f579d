package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/dashboard"
	"github.com/trezcool/chuo/core/user"
	testutil "github.com/trezcool/chuo/tests"
)

func (app *testApp) createAssignment(t *testing.T, teacherID, subjectID, title string) content.Assignment {
	data := []byte("%PDF-1.4")
	asg, err := app.cntSvc.CreateAssignment(
		context.Background(),
		teacherID,
		content.NewAssignment{
			SubjectID:   subjectID,
			Title:       title,
			Description: "see attached",
			Deadline:    time.Now().UTC().Add(48 * time.Hour),
		},
		&content.Upload{Filename: title + ".pdf", Size: int64(len(data)), Content: bytes.NewReader(data)},
	)
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return asg
}

func Test_studentApi_dashboard(t *testing.T) {
	app := initApp(t)

	student := testutil.CreateUser(t, app.usrRepo, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleStudent}, true)
	dropout := testutil.CreateUser(t, app.usrRepo, "Dave", "dave11", "dave@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	cs := app.createCourse(t, "Computer Science", "cs")
	algo := app.createSubject(t, cs.ID, "Algorithms", "algo")
	app.createSubject(t, cs.ID, "Databases", "db")
	app.enroll(t, student.ID, cs.ID)
	app.assign(t, teacher.ID, algo.ID)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student required", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Enrollment required", token: getToken(t, dropout),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "student is not enrolled in any course"}),
		},
		{name: "Get dashboard", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/student/dashboard"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var dash dashboard.StudentDashboard
				if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if dash.Course.ID != cs.ID {
					t.Errorf("failed! course = %+v; want %v", dash.Course, cs.ID)
				}
				if len(dash.Subjects) != 2 {
					t.Errorf("failed! len(Subjects) = %d; want 2", len(dash.Subjects))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("subjects", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/subjects", getToken(t, student))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})
}

func Test_studentApi_submissions(t *testing.T) {
	app := initApp(t)

	student := testutil.CreateUser(t, app.usrRepo, "Alice", "alice1", "alice@test.cd", "", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, app.usrRepo, "Dave", "dave11", "dave@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	cs := app.createCourse(t, "Computer Science", "cs")
	bus := app.createCourse(t, "Business", "biz")
	algo := app.createSubject(t, cs.ID, "Algorithms", "algo")
	app.assign(t, teacher.ID, algo.ID)
	app.enroll(t, student.ID, cs.ID)
	app.enroll(t, outsider.ID, bus.ID)

	asg := app.createAssignment(t, teacher.ID, algo.ID, "sorting")
	studentToken := getToken(t, student)
	submitPath := "/v1/student/assignments/" + asg.ID + "/submissions"

	t.Run("retrieve assignment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/assignments/"+asg.ID, studentToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, asg)}, rec)
	})

	t.Run("assignment outside enrolled course is hidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/student/assignments/"+asg.ID, getToken(t, outsider))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "student is not enrolled in any course"}),
		}, rec)
	})

	t.Run("file required", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, submitPath, studentToken, nil, "", nil)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "a file is required"}),
		}, rec)
	})

	t.Run("enrollment in the course required", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, submitPath, getToken(t, outsider), nil, "answer.pdf", []byte("%PDF-1.4"))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "student is not enrolled in any course"}),
		}, rec)
	})

	t.Run("unknown assignment", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, "/v1/student/assignments/e0b52a50-2c38-4a59-96ef-b744a4c1c623/submissions", studentToken, nil, "answer.pdf", []byte("%PDF-1.4"))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "assignment not found"}),
		}, rec)
	})

	var sub content.Submission

	t.Run("submitted", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, submitPath, studentToken, nil, "answer.pdf", []byte("%PDF-1.4"))
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if sub.AssignmentID != asg.ID || sub.StudentID != student.ID || sub.FileRef == "" {
			t.Errorf("failed! submission = %+v", sub)
		}
	})

	t.Run("resubmission replaces", func(t *testing.T) {
		req, rec := newUploadRequest(t, http.MethodPost, submitPath, studentToken, nil, "answer-v2.pdf", []byte("%PDF-1.4 v2"))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/student/submissions", studentToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, sub)}, rec)
	})
}
