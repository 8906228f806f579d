package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/chuo/core"
)

type Course struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	DurationYears int       `json:"duration_years"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name          string `json:"name" validate:"required"`
	Code          string `json:"code" validate:"required,alphanum_"`
	DurationYears int    `json:"duration_years" validate:"required,min=1,max=6"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Code = core.CleanString(nc.Code, true /* lower */)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCourseCodeUniqueness(ctx, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name          string `json:"name"`
	Code          string `json:"code" validate:"omitempty,alphanum_"`
	DurationYears int    `json:"duration_years" validate:"omitempty,min=1,max=6"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, orig Course, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}

	code := core.CleanString(uc.Code, true /* lower */)
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}

	if uc.DurationYears == 0 {
		uc.DurationYears = orig.DurationYears
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCourseCodeUniqueness(ctx, uc.Code, orig)
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required,alphanum_"`
	CourseID string `json:"course_id" validate:"required,uuid4"`
}

func (ns *NewSubject) Validate(ctx context.Context, validate *validator.Validate, svc ServiceInterface) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code, true /* lower */)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if _, err := svc.GetCourse(ctx, ns.CourseID); err != nil {
		return err
	}
	return svc.CheckSubjectCodeUniqueness(ctx, ns.Code)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// A Subject cannot be moved to another Course; delete and recreate instead.
type UpdateSubject struct {
	Name string `json:"name"`
	Code string `json:"code" validate:"omitempty,alphanum_"`
}

func (us *UpdateSubject) Validate(ctx context.Context, orig Subject, validate *validator.Validate, svc ServiceInterface) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	code := core.CleanString(us.Code, true /* lower */)
	if code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}

	if err := validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckSubjectCodeUniqueness(ctx, us.Code, orig)
}

// SubjectFilter narrows subject queries; fields are AND'ed.
type SubjectFilter struct {
	CourseID  string `query:"course_id"`
	TeacherID string `query:"teacher_id"`
}

func (sf *SubjectFilter) IsEmpty() bool {
	return sf.CourseID == "" && sf.TeacherID == ""
}
