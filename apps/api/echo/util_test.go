package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/chuo/apps/api/echo"
	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/attendance"
	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/dashboard"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
	emailsvc "github.com/trezcool/chuo/services/email"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
	"github.com/trezcool/chuo/storage/files"
	testutil "github.com/trezcool/chuo/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	server    *Server
	mediaRoot string

	usrRepo *dummydb.UserRepository
	schRepo *dummydb.SchoolRepository
	attRepo *dummydb.AttendanceRepository
	cntRepo *dummydb.ContentRepository
	store   *files.DummyStorage

	usrSvc    user.ServiceInterface
	schoolSvc school.ServiceInterface
	attSvc    attendance.ServiceInterface
	cntSvc    content.ServiceInterface
}

func initApp(t *testing.T) *testApp {
	conf := &core.Config{
		TestMode:                  true,
		AppName:                   "Chuo",
		SecretKey:                 []byte("secret"),
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Storage: core.StorageConfig{
			Backend:   "local",
			MediaRoot: t.TempDir(),
		},
	}
	logger := testutil.NewLogger()

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}
	app := &testApp{
		mediaRoot: conf.Storage.MediaRoot,
		usrRepo:   dummydb.NewUserRepository(db),
		schRepo:   dummydb.NewSchoolRepository(db),
		attRepo:   dummydb.NewAttendanceRepository(db),
		cntRepo:   dummydb.NewContentRepository(db),
		store:     files.NewDummyStorage(),
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	app.usrSvc = user.NewService(app.usrRepo, mailSvc, logger, conf)
	app.schoolSvc = school.NewService(app.schRepo)
	app.attSvc = attendance.NewService(app.attRepo, app.schoolSvc)
	app.cntSvc = content.NewService(app.cntRepo, app.schoolSvc, app.store, logger)
	dashSvc := dashboard.NewService(app.schoolSvc, app.attSvc, app.cntSvc, logger)

	app.server = NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       app.usrSvc,
		SchoolSvc:     app.schoolSvc,
		AttendanceSvc: app.attSvc,
		ContentSvc:    app.cntSvc,
		DashboardSvc:  dashSvc,
	})
	return app
}

// Domain fixtures

func (app *testApp) createCourse(t *testing.T, name, code string) school.Course {
	crs, err := app.schoolSvc.CreateCourse(context.Background(), school.NewCourse{Name: name, Code: code, DurationYears: 3})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func (app *testApp) createSubject(t *testing.T, courseID, name, code string) school.Subject {
	sub, err := app.schoolSvc.CreateSubject(context.Background(), school.NewSubject{Name: name, Code: code, CourseID: courseID})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func (app *testApp) enroll(t *testing.T, studentID, courseID string) {
	if err := app.schoolSvc.Enroll(context.Background(), studentID, courseID); err != nil {
		t.Fatalf("enroll() failed: %v", err)
	}
}

func (app *testApp) assign(t *testing.T, teacherID, subjectID string) {
	if err := app.schoolSvc.AssignTeacher(context.Background(), teacherID, subjectID); err != nil {
		t.Fatalf("assign() failed: %v", err)
	}
}

// HTTP helpers

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// newUploadRequest builds a multipart request with the given form fields and
// an optional file part.
func newUploadRequest(t *testing.T, method, path, token string, fields map[string]string, filename string, fileData []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if filename != "" {
		fw, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
		if _, err = io.Copy(fw, bytes.NewReader(fileData)); err != nil {
			t.Fatalf("newUploadRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newUploadRequest() failed: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
