package content

import (
	"context"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/chuo/core"
)

// Assignment is teacher-owned, subject-scoped work with a hard deadline.
// The deadline is immutable after creation.
type Assignment struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	SubjectID   string    `json:"subject_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"` // UTC
	FileRef     string    `json:"file_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Submission is a student's answer to an Assignment; one per
// (assignment, student), resubmission before the deadline replaces it.
type Submission struct {
	ID           string    `json:"id"`
	AssignmentID string    `json:"assignment_id"`
	StudentID    string    `json:"student_id"`
	FileRef      string    `json:"file_ref"`
	SubmittedAt  time.Time `json:"submitted_at"` // UTC
}

// Note is teacher-owned, subject-scoped lecture notes.
type Note struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	SubjectID   string    `json:"subject_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileRef     string    `json:"file_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Material is teacher-owned, subject-scoped study material.
type Material struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	SubjectID   string    `json:"subject_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FileRef     string    `json:"file_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Notice is teacher-owned and broadcast to a whole course.
type Notice struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

// Upload carries an incoming file; Content is read at most once.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// FileStore is any collaborator that can persist uploaded files and
// return a stable reference (URL or path) for later retrieval.
type FileStore interface {
	Store(ctx context.Context, key string, r io.Reader) (ref string, err error)
	Remove(ctx context.Context, ref string) error
}

type NewAssignment struct {
	SubjectID   string    `json:"subject_id" validate:"required,uuid4"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline" validate:"required"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return validate.Struct(na)
}

type NewNote struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Description = core.CleanString(nn.Description)
	return validate.Struct(nn)
}

type NewMaterial struct {
	SubjectID   string `json:"subject_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	return validate.Struct(nm)
}

type NewNotice struct {
	CourseID    string `json:"course_id" validate:"required,uuid4"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Description = core.CleanString(nn.Description)
	return validate.Struct(nn)
}

// AssignmentFilter narrows assignment queries; fields are AND'ed,
// zero values ignored.
type AssignmentFilter struct {
	TeacherID  string
	SubjectID  string
	SubjectIDs []string
}

type SubmissionFilter struct {
	AssignmentID string
	StudentID    string
}

type NoteFilter struct {
	TeacherID  string
	SubjectID  string
	SubjectIDs []string
}

type MaterialFilter struct {
	TeacherID  string
	SubjectID  string
	SubjectIDs []string
}

type NoticeFilter struct {
	TeacherID string
	CourseID  string
}
