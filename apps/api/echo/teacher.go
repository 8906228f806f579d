package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/attendance"
	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/dashboard"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

// teacherApi covers the teacher portal: assigned subjects, attendance
// marking and content publishing.
type teacherApi struct {
	schoolSvc     school.ServiceInterface
	attendanceSvc attendance.ServiceInterface
	contentSvc    content.ServiceInterface
	dashboardSvc  dashboard.ServiceInterface
	userSvc       user.ServiceInterface
	validate      *validator.Validate
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := teacherApi{
		schoolSvc:     deps.SchoolSvc,
		attendanceSvc: deps.AttendanceSvc,
		contentSvc:    deps.ContentSvc,
		dashboardSvc:  deps.DashboardSvc,
		userSvc:       deps.UserSvc,
		validate:      deps.Validate,
	}

	tg := g.Group("/teacher", jwt, teacherMiddleware())

	tg.GET("/summary", api.summary)
	tg.GET("/subjects", api.querySubjects)
	tg.GET("/subjects/:id/roster", api.queryRoster)
	tg.GET("/subjects/:id/sessions", api.querySessions)

	tg.POST("/attendance", api.submitAttendance)
	tg.GET("/attendance", api.queryAttendance)

	tg.POST("/assignments", api.createAssignment)
	tg.GET("/assignments", api.queryAssignments)
	tg.GET("/assignments/:id/submissions", api.querySubmissions)
	tg.DELETE("/assignments/:id", api.destroyAssignment)

	tg.POST("/notes", api.createNote)
	tg.GET("/notes", api.queryNotes)
	tg.DELETE("/notes/:id", api.destroyNote)

	tg.POST("/materials", api.createMaterial)
	tg.GET("/materials", api.queryMaterials)
	tg.DELETE("/materials/:id", api.destroyMaterial)

	tg.POST("/notices", api.createNotice)
	tg.GET("/notices", api.queryNotices)
	tg.DELETE("/notices/:id", api.destroyNotice)
}

// Subject & attendance handlers

func (api *teacherApi) summary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sum, err := api.dashboardSvc.TeacherSummary(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "assembling teacher summary")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *teacherApi) querySubjects(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subjects, err := api.schoolSvc.QuerySubjects(ctx.Request().Context(), &school.SubjectFilter{TeacherID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *teacherApi) queryRoster(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.schoolSvc.EnsureAssigned(rctx, claims.Subject, ctx.Param("id")); err != nil {
		return err
	}

	students, err := api.schoolSvc.Roster(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *teacherApi) querySessions(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if err := api.schoolSvc.EnsureAssigned(rctx, claims.Subject, ctx.Param("id")); err != nil {
		return err
	}

	sessions, err := api.attendanceSvc.Sessions(rctx, claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.SessionSummary{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *teacherApi) submitAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data attendance.NewBatch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBatch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	written, err := api.attendanceSvc.Submit(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AttendanceSubmitResponse{Written: written})
}

func (api *teacherApi) queryAttendance(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := &attendance.RecordFilter{
		TeacherID: claims.Subject,
		SubjectID: ctx.QueryParam("subject_id"),
		StudentID: ctx.QueryParam("student_id"),
	}
	if raw := ctx.QueryParam("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
		}
		filter.Date = date
	}

	recs, err := api.attendanceSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

// Content handlers

func (api *teacherApi) createAssignment(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data := content.NewAssignment{
		SubjectID:   ctx.FormValue("subject_id"),
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	if raw := ctx.FormValue("deadline"); raw != "" {
		deadline, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "deadline", Error: "must be a valid RFC3339 timestamp"})
		}
		data.Deadline = deadline
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	up, done, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer done()

	asg, err := api.contentSvc.CreateAssignment(ctx.Request().Context(), claims.Subject, data, up)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *teacherApi) queryAssignments(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asgs, err := api.contentSvc.QueryAssignments(ctx.Request().Context(), &content.AssignmentFilter{
		TeacherID: claims.Subject,
		SubjectID: ctx.QueryParam("subject_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if asgs == nil {
		asgs = []content.Assignment{}
	}
	return ctx.JSON(http.StatusOK, asgs)
}

func (api *teacherApi) querySubmissions(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.contentSvc.GetAssignment(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if asg.TeacherID != claims.Subject && !claims.IsAdmin {
		return content.ErrNotOwner
	}

	subs, err := api.contentSvc.QuerySubmissions(rctx, &content.SubmissionFilter{AssignmentID: asg.ID})
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []content.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *teacherApi) destroyAssignment(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.contentSvc.DeleteAssignment(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) createNote(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data := content.NewNote{
		SubjectID:   ctx.FormValue("subject_id"),
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	up, done, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer done()

	nt, err := api.contentSvc.CreateNote(ctx.Request().Context(), claims.Subject, data, up)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, nt)
}

func (api *teacherApi) queryNotes(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notes, err := api.contentSvc.QueryNotes(ctx.Request().Context(), &content.NoteFilter{
		TeacherID: claims.Subject,
		SubjectID: ctx.QueryParam("subject_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying notes")
	}
	if notes == nil {
		notes = []content.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *teacherApi) destroyNote(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.contentSvc.DeleteNote(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) createMaterial(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	data := content.NewMaterial{
		SubjectID:   ctx.FormValue("subject_id"),
		Title:       ctx.FormValue("title"),
		Description: ctx.FormValue("description"),
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	up, done, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer done()

	mat, err := api.contentSvc.CreateMaterial(ctx.Request().Context(), claims.Subject, data, up)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mat)
}

func (api *teacherApi) queryMaterials(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	mats, err := api.contentSvc.QueryMaterials(ctx.Request().Context(), &content.MaterialFilter{
		TeacherID: claims.Subject,
		SubjectID: ctx.QueryParam("subject_id"),
	})
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if mats == nil {
		mats = []content.Material{}
	}
	return ctx.JSON(http.StatusOK, mats)
}

func (api *teacherApi) destroyMaterial(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.contentSvc.DeleteMaterial(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherApi) createNotice(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data content.NewNotice
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNotice")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ntc, err := api.contentSvc.CreateNotice(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ntc)
}

func (api *teacherApi) queryNotices(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notices, err := api.contentSvc.QueryNotices(ctx.Request().Context(), &content.NoticeFilter{TeacherID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	if notices == nil {
		notices = []content.Notice{}
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *teacherApi) destroyNotice(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err := api.contentSvc.DeleteNotice(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type AttendanceSubmitResponse struct {
	Written int `json:"written"`
}
