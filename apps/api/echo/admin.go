package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

var (
	errNotAStudent = "user is not a student"
	errNotATeacher = "user is not a teacher"
)

// adminApi manages courses, subjects, enrollments and teacher assignments.
type adminApi struct {
	schoolSvc school.ServiceInterface
	userSvc   user.ServiceInterface
	validate  *validator.Validate
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *ServerDeps) {
	api := adminApi{
		schoolSvc: deps.SchoolSvc,
		userSvc:   deps.UserSvc,
		validate:  deps.Validate,
	}

	ag := g.Group("/admin", jwt, adminMiddleware())

	cg := ag.Group("/courses")
	cg.POST("", api.createCourse)
	cg.GET("", api.queryCourses)
	cg.GET("/:id", api.retrieveCourse)
	cg.PUT("/:id", api.updateCourse)
	cg.DELETE("/:id", api.destroyCourse)
	cg.GET("/:id/students", api.queryCourseStudents)

	sg := ag.Group("/subjects")
	sg.POST("", api.createSubject)
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)
	sg.POST("/:id/teachers", api.assignTeacher)
	sg.DELETE("/:id/teachers/:teacherId", api.unassignTeacher)

	ag.POST("/enrollments", api.enroll)
}

// Course handlers

func (api *adminApi) createCourse(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(rctx, api.validate, api.schoolSvc); err != nil {
		return err
	}

	crs, err := api.schoolSvc.CreateCourse(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) queryCourses(ctx echo.Context) error {
	courses, err := api.schoolSvc.QueryCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *adminApi) retrieveCourse(ctx echo.Context) error {
	crs, err := api.schoolSvc.GetCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) updateCourse(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	crs, err := api.schoolSvc.GetCourse(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(rctx, crs, api.validate, api.schoolSvc); err != nil {
		return err
	}

	crs, err = api.schoolSvc.UpdateCourse(rctx, crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *adminApi) destroyCourse(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	crs, err := api.schoolSvc.GetCourse(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteCourses(rctx, crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) queryCourseStudents(ctx echo.Context) error {
	students, err := api.schoolSvc.CourseStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

// Subject handlers

func (api *adminApi) createSubject(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(rctx, api.validate, api.schoolSvc); err != nil {
		return err
	}

	sub, err := api.schoolSvc.CreateSubject(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *adminApi) querySubjects(ctx echo.Context) error {
	filter := new(school.SubjectFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Subject{})
	}

	subjects, err := api.schoolSvc.QuerySubjects(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *adminApi) retrieveSubject(ctx echo.Context) error {
	sub, err := api.schoolSvc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) updateSubject(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	sub, err := api.schoolSvc.GetSubject(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data school.UpdateSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	if err := data.Validate(rctx, sub, api.validate, api.schoolSvc); err != nil {
		return err
	}

	sub, err = api.schoolSvc.UpdateSubject(rctx, sub.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) destroySubject(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	sub, err := api.schoolSvc.GetSubject(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.DeleteSubjects(rctx, sub.ID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Enrollment & teacher assignment handlers

func (api *adminApi) enroll(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data EnrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.userSvc.GetByID(rctx, data.StudentID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return errors.Wrap(err, "finding student by ID")
	}
	if !usr.IsStudent() {
		err := errors.New(errNotAStudent)
		return core.NewValidationError(err, core.FieldError{Field: "student_id", Error: errNotAStudent})
	}

	if err := api.schoolSvc.Enroll(rctx, usr.ID, data.CourseID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Student enrolled."})
}

func (api *adminApi) assignTeacher(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	var data AssignTeacherRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacherRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.userSvc.GetByID(rctx, data.TeacherID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: err.Error()})
		}
		return errors.Wrap(err, "finding teacher by ID")
	}
	if !usr.IsTeacher() {
		err := errors.New(errNotATeacher)
		return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: errNotATeacher})
	}

	if err := api.schoolSvc.AssignTeacher(rctx, usr.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Teacher assigned."})
}

func (api *adminApi) unassignTeacher(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	sub, err := api.schoolSvc.GetSubject(rctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.schoolSvc.UnassignTeacher(rctx, ctx.Param("teacherId"), sub.ID); err != nil {
		return errors.Wrap(err, "unassigning teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	EnrollmentRequest struct {
		StudentID string `json:"student_id" validate:"required,uuid4"`
		CourseID  string `json:"course_id" validate:"required,uuid4"`
	}

	AssignTeacherRequest struct {
		TeacherID string `json:"teacher_id" validate:"required,uuid4"`
	}
)

func (er *EnrollmentRequest) Validate(validate *validator.Validate) error { return validate.Struct(er) }

func (ar *AssignTeacherRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}
