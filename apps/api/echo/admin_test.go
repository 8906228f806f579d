package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/chuo/apps/api/echo"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
	testutil "github.com/trezcool/chuo/tests"
)

func Test_adminApi_courses(t *testing.T) {
	app := initApp(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, admin)

	cs := app.createCourse(t, "Computer Science", "cs")

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/admin/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", method: http.MethodGet, path: "/v1/admin/courses", token: getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", method: http.MethodGet, path: "/v1/admin/courses", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, cs),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/admin/courses/" + cs.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, cs),
		},
		{
			name: "Retrieve (not found)", method: http.MethodGet, path: "/v1/admin/courses/e0b52a50-2c38-4a59-96ef-b744a4c1c623", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "Create: required fields", method: http.MethodPost, path: "/v1/admin/courses", token: adminToken,
			body:     marchallObj(t, school.NewCourse{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required", "code": "this field is required", "duration_years": "this field is required"}),
		},
		{
			name: "Create: duplicate code", method: http.MethodPost, path: "/v1/admin/courses", token: adminToken,
			body:     marchallObj(t, school.NewCourse{Name: "Computing", Code: "cs", DurationYears: 3}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "a course with this code already exists"}),
		},
		{name: "Created", method: http.MethodPost, path: "/v1/admin/courses", token: adminToken, body: marchallObj(t, school.NewCourse{Name: "Business", Code: "biz", DurationYears: 4}), wantCode: http.StatusCreated},
		{
			name: "Delete (not found)", method: http.MethodDelete, path: "/v1/admin/courses/e0b52a50-2c38-4a59-96ef-b744a4c1c623", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData school.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ID == "" || respData.Code != "biz" {
					t.Errorf("failed! course = %+v", respData)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminApi_courseUpdate(t *testing.T) {
	app := initApp(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	cs := app.createCourse(t, "Computer Science", "cs")
	app.createCourse(t, "Business", "biz")

	t.Run("code taken by another course", func(t *testing.T) {
		body := marchallObj(t, school.UpdateCourse{Code: "biz"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/courses/"+cs.ID, adminToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "a course with this code already exists"}),
		}, rec)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		body := marchallObj(t, school.UpdateCourse{Name: "Computing"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/admin/courses/"+cs.ID, adminToken, body)
		app.server.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var respData school.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Name != "Computing" || respData.Code != "cs" || respData.DurationYears != 3 {
			t.Errorf("failed! course = %+v", respData)
		}
	})
}

func Test_adminApi_subjects(t *testing.T) {
	app := initApp(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	cs := app.createCourse(t, "Computer Science", "cs")
	biz := app.createCourse(t, "Business", "biz")
	algo := app.createSubject(t, cs.ID, "Algorithms", "algo")
	acc := app.createSubject(t, biz.ID, "Accounting", "acc")

	tests := []httpTest{
		{
			name: "Create: unknown course", method: http.MethodPost, path: "/v1/admin/subjects", token: adminToken,
			body:     marchallObj(t, school.NewSubject{Name: "Databases", Code: "db", CourseID: "e0b52a50-2c38-4a59-96ef-b744a4c1c623"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "Create: duplicate code", method: http.MethodPost, path: "/v1/admin/subjects", token: adminToken,
			body:     marchallObj(t, school.NewSubject{Name: "Algorithmics", Code: "algo", CourseID: cs.ID}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"code": "a subject with this code already exists"}),
		},
		{name: "Created", method: http.MethodPost, path: "/v1/admin/subjects", token: adminToken, body: marchallObj(t, school.NewSubject{Name: "Databases", Code: "db", CourseID: cs.ID}), wantCode: http.StatusCreated},
		{
			name: "Filter by course", method: http.MethodGet, path: "/v1/admin/subjects?course_id=" + biz.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, acc),
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/admin/subjects/" + algo.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, algo),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_adminApi_enrollments(t *testing.T) {
	app := initApp(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	cs := app.createCourse(t, "Computer Science", "cs")

	tests := []httpTest{
		{
			name: "only students can be enrolled",
			body: marchallObj(t, EnrollmentRequest{StudentID: teacher.ID, CourseID: cs.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "user is not a student"}),
		},
		{
			name: "unknown student",
			body: marchallObj(t, EnrollmentRequest{StudentID: "e0b52a50-2c38-4a59-96ef-b744a4c1c623", CourseID: cs.ID}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "user not found"}),
		},
		{
			name: "unknown course",
			body: marchallObj(t, EnrollmentRequest{StudentID: student.ID, CourseID: "e0b52a50-2c38-4a59-96ef-b744a4c1c623"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "enrolled",
			body: marchallObj(t, EnrollmentRequest{StudentID: student.ID, CourseID: cs.ID}),
			wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "Student enrolled."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/admin/enrollments"
		tt.token = adminToken

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("course students", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/admin/courses/"+cs.ID+"/students", adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, student)}, rec)
	})
}

func Test_adminApi_teacherAssignments(t *testing.T) {
	app := initApp(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	cs := app.createCourse(t, "Computer Science", "cs")
	algo := app.createSubject(t, cs.ID, "Algorithms", "algo")

	t.Run("only teachers can be assigned", func(t *testing.T) {
		body := marchallObj(t, AssignTeacherRequest{TeacherID: student.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/subjects/"+algo.ID+"/teachers", adminToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"teacher_id": "user is not a teacher"}),
		}, rec)
	})

	t.Run("assigned", func(t *testing.T) {
		body := marchallObj(t, AssignTeacherRequest{TeacherID: teacher.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/admin/subjects/"+algo.ID+"/teachers", adminToken, body)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, SuccessResponse{Success: "Teacher assigned."})}, rec)
	})

	t.Run("unassigned", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/subjects/"+algo.ID+"/teachers/"+teacher.ID, adminToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}
