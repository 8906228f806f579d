package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/dashboard"
	"github.com/trezcool/chuo/core/school"
)

// studentApi covers the student portal: the dashboard and assignment
// submissions.
type studentApi struct {
	schoolSvc    school.ServiceInterface
	contentSvc   content.ServiceInterface
	dashboardSvc dashboard.ServiceInterface
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := studentApi{
		schoolSvc:    deps.SchoolSvc,
		contentSvc:   deps.ContentSvc,
		dashboardSvc: deps.DashboardSvc,
	}

	sg := g.Group("/student", jwt, studentMiddleware())

	sg.GET("/dashboard", api.dashboard)
	sg.GET("/subjects", api.querySubjects)
	sg.GET("/assignments/:id", api.retrieveAssignment)
	sg.POST("/assignments/:id/submissions", api.submitAssignment)
	sg.GET("/submissions", api.querySubmissions)
}

func (api *studentApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	dash, err := api.dashboardSvc.StudentDashboard(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *studentApi) querySubjects(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	crs, err := api.schoolSvc.EnrolledCourse(rctx, claims.Subject)
	if err != nil {
		return err
	}
	subjects, err := api.schoolSvc.QuerySubjects(rctx, &school.SubjectFilter{CourseID: crs.ID})
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *studentApi) retrieveAssignment(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	asg, err := api.contentSvc.GetAssignment(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	// only assignments in the student's enrolled course are visible
	crs, err := api.schoolSvc.EnrolledCourse(rctx, claims.Subject)
	if err != nil {
		return err
	}
	sub, err := api.schoolSvc.GetSubject(rctx, asg.SubjectID)
	if err != nil {
		return err
	}
	if sub.CourseID != crs.ID {
		return school.ErrNotEnrolled
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *studentApi) submitAssignment(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	up, done, err := bindUpload(ctx)
	if err != nil {
		return err
	}
	defer done()

	sub, err := api.contentSvc.SubmitAssignment(ctx.Request().Context(), claims.Subject, ctx.Param("id"), up)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *studentApi) querySubmissions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	subs, err := api.contentSvc.QuerySubmissions(ctx.Request().Context(), &content.SubmissionFilter{StudentID: claims.Subject})
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []content.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
