package content

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

const maxFileSize = 10 << 20 // 10 MiB

var allowedFileExts = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".txt": true, ".xls": true, ".xlsx": true,
}

var (
	// errors
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrNoteNotFound       = errors.New("note not found")
	ErrMaterialNotFound   = errors.New("material not found")
	ErrNoticeNotFound     = errors.New("notice not found")
	ErrNotOwner           = errors.New("content belongs to another teacher")
	errDeadlinePassed     = errors.New("the submission deadline has passed")
	errDeadlineNotFuture  = errors.New("deadline must be in the future")
	errFileRequired       = errors.New("a file is required")
	errFileTooBig         = fmt.Errorf("file exceeds the %dMB limit", maxFileSize>>20)
	errFileExt            = "file type %q is not allowed"

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, asg Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		FilterAssignments(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error

		// UpsertSubmission inserts or replaces on the (assignment, student) key.
		UpsertSubmission(ctx context.Context, sub Submission) (Submission, error)
		FilterSubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)

		CreateNote(ctx context.Context, nt Note) (Note, error)
		GetNoteByID(ctx context.Context, id string) (Note, error)
		FilterNotes(ctx context.Context, filter *NoteFilter) ([]Note, error)
		DeleteNotesByID(ctx context.Context, ids ...string) error

		CreateMaterial(ctx context.Context, mat Material) (Material, error)
		GetMaterialByID(ctx context.Context, id string) (Material, error)
		FilterMaterials(ctx context.Context, filter *MaterialFilter) ([]Material, error)
		DeleteMaterialsByID(ctx context.Context, ids ...string) error

		CreateNotice(ctx context.Context, ntc Notice) (Notice, error)
		GetNoticeByID(ctx context.Context, id string) (Notice, error)
		FilterNotices(ctx context.Context, filter *NoticeFilter) ([]Notice, error)
		DeleteNoticesByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		// CreateAssignment stores the optional attachment first, then the
		// record; the stored file is removed if the record cannot be written.
		CreateAssignment(ctx context.Context, teacherID string, na NewAssignment, up *Upload) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error)
		DeleteAssignment(ctx context.Context, actor user.User, id string) error

		// SubmitAssignment accepts a student's answer file until the deadline;
		// resubmission replaces the previous one.
		SubmitAssignment(ctx context.Context, studentID, assignmentID string, up *Upload) (Submission, error)
		QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)

		CreateNote(ctx context.Context, teacherID string, nn NewNote, up *Upload) (Note, error)
		QueryNotes(ctx context.Context, filter *NoteFilter) ([]Note, error)
		DeleteNote(ctx context.Context, actor user.User, id string) error

		CreateMaterial(ctx context.Context, teacherID string, nm NewMaterial, up *Upload) (Material, error)
		QueryMaterials(ctx context.Context, filter *MaterialFilter) ([]Material, error)
		DeleteMaterial(ctx context.Context, actor user.User, id string) error

		CreateNotice(ctx context.Context, teacherID string, nn NewNotice) (Notice, error)
		QueryNotices(ctx context.Context, filter *NoticeFilter) ([]Notice, error)
		DeleteNotice(ctx context.Context, actor user.User, id string) error
	}

	service struct {
		repo      Repository
		schoolSvc school.ServiceInterface
		files     FileStore
		logger    core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, schoolSvc school.ServiceInterface, files FileStore, logger core.Logger) *service {
	return &service{
		repo:      repo,
		schoolSvc: schoolSvc,
		files:     files,
		logger:    logger,
	}
}

// checkUpload enforces the upload policy (size limit and extension whitelist).
func checkUpload(up *Upload) error {
	if up.Size > maxFileSize {
		return core.NewValidationError(errFileTooBig, core.FieldError{Field: "file", Error: errFileTooBig.Error()})
	}
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !allowedFileExts[ext] {
		err := fmt.Errorf(errFileExt, ext)
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: err.Error()})
	}
	return nil
}

// storeUpload persists the upload under a fresh key and returns its reference.
func (svc *service) storeUpload(ctx context.Context, kind string, up *Upload) (string, error) {
	if err := checkUpload(up); err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s%s", kind, uuid.New(), strings.ToLower(filepath.Ext(up.Filename)))
	ref, err := svc.files.Store(ctx, key, up.Content)
	if err != nil {
		return "", core.NewStorageError(err)
	}
	return ref, nil
}

// removeStored deletes a stored file after a failed record write. Failure here
// only leaves an orphan file behind, so it is logged and swallowed.
func (svc *service) removeStored(ctx context.Context, ref string) {
	if err := svc.files.Remove(ctx, ref); err != nil {
		svc.logger.Error(fmt.Sprintf("removing stored file %s", ref), err)
	}
}

func (svc *service) CreateAssignment(ctx context.Context, teacherID string, na NewAssignment, up *Upload) (Assignment, error) {
	if na.Deadline.Before(nowFunc().UTC()) {
		return Assignment{}, core.NewValidationError(errDeadlineNotFuture, core.FieldError{Field: "deadline", Error: errDeadlineNotFuture.Error()})
	}
	if err := svc.schoolSvc.EnsureAssigned(ctx, teacherID, na.SubjectID); err != nil {
		return Assignment{}, err
	}

	var ref string
	if up != nil {
		var err error
		if ref, err = svc.storeUpload(ctx, "assignments", up); err != nil {
			return Assignment{}, err
		}
	}

	asg, err := svc.repo.CreateAssignment(ctx, Assignment{
		TeacherID:   teacherID,
		SubjectID:   na.SubjectID,
		Title:       na.Title,
		Description: na.Description,
		Deadline:    na.Deadline.UTC(),
		FileRef:     ref,
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		if ref != "" {
			svc.removeStored(ctx, ref)
		}
		return Assignment{}, err
	}
	return asg, nil
}

func (svc *service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *service) QueryAssignments(ctx context.Context, filter *AssignmentFilter) ([]Assignment, error) {
	return svc.repo.FilterAssignments(ctx, filter)
}

func (svc *service) DeleteAssignment(ctx context.Context, actor user.User, id string) error {
	asg, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && asg.TeacherID != actor.ID {
		return ErrNotOwner
	}
	return svc.repo.DeleteAssignmentsByID(ctx, id)
}

func (svc *service) SubmitAssignment(ctx context.Context, studentID, assignmentID string, up *Upload) (Submission, error) {
	if up == nil {
		return Submission{}, core.NewValidationError(errFileRequired, core.FieldError{Field: "file", Error: errFileRequired.Error()})
	}

	asg, err := svc.repo.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		return Submission{}, err
	}
	if nowFunc().UTC().After(asg.Deadline) {
		return Submission{}, core.NewValidationError(errDeadlinePassed, core.FieldError{Field: "file", Error: errDeadlinePassed.Error()})
	}

	// only students in the subject's roster may submit
	roster, err := svc.schoolSvc.Roster(ctx, asg.SubjectID)
	if err != nil {
		return Submission{}, err
	}
	var inRoster bool
	for _, student := range roster {
		if student.ID == studentID {
			inRoster = true
			break
		}
	}
	if !inRoster {
		return Submission{}, school.ErrNotEnrolled
	}

	ref, err := svc.storeUpload(ctx, "submissions", up)
	if err != nil {
		return Submission{}, err
	}

	sub, err := svc.repo.UpsertSubmission(ctx, Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		FileRef:      ref,
		SubmittedAt:  nowFunc().UTC(),
	})
	if err != nil {
		svc.removeStored(ctx, ref)
		return Submission{}, err
	}
	return sub, nil
}

func (svc *service) QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error) {
	return svc.repo.FilterSubmissions(ctx, filter)
}

func (svc *service) CreateNote(ctx context.Context, teacherID string, nn NewNote, up *Upload) (Note, error) {
	if err := svc.schoolSvc.EnsureAssigned(ctx, teacherID, nn.SubjectID); err != nil {
		return Note{}, err
	}

	var ref string
	if up != nil {
		var err error
		if ref, err = svc.storeUpload(ctx, "notes", up); err != nil {
			return Note{}, err
		}
	}

	nt, err := svc.repo.CreateNote(ctx, Note{
		TeacherID:   teacherID,
		SubjectID:   nn.SubjectID,
		Title:       nn.Title,
		Description: nn.Description,
		FileRef:     ref,
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		if ref != "" {
			svc.removeStored(ctx, ref)
		}
		return Note{}, err
	}
	return nt, nil
}

func (svc *service) QueryNotes(ctx context.Context, filter *NoteFilter) ([]Note, error) {
	return svc.repo.FilterNotes(ctx, filter)
}

func (svc *service) DeleteNote(ctx context.Context, actor user.User, id string) error {
	nt, err := svc.repo.GetNoteByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && nt.TeacherID != actor.ID {
		return ErrNotOwner
	}
	return svc.repo.DeleteNotesByID(ctx, id)
}

func (svc *service) CreateMaterial(ctx context.Context, teacherID string, nm NewMaterial, up *Upload) (Material, error) {
	if err := svc.schoolSvc.EnsureAssigned(ctx, teacherID, nm.SubjectID); err != nil {
		return Material{}, err
	}

	var ref string
	if up != nil {
		var err error
		if ref, err = svc.storeUpload(ctx, "materials", up); err != nil {
			return Material{}, err
		}
	}

	mat, err := svc.repo.CreateMaterial(ctx, Material{
		TeacherID:   teacherID,
		SubjectID:   nm.SubjectID,
		Title:       nm.Title,
		Description: nm.Description,
		FileRef:     ref,
		CreatedAt:   nowFunc().UTC(),
	})
	if err != nil {
		if ref != "" {
			svc.removeStored(ctx, ref)
		}
		return Material{}, err
	}
	return mat, nil
}

func (svc *service) QueryMaterials(ctx context.Context, filter *MaterialFilter) ([]Material, error) {
	return svc.repo.FilterMaterials(ctx, filter)
}

func (svc *service) DeleteMaterial(ctx context.Context, actor user.User, id string) error {
	mat, err := svc.repo.GetMaterialByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && mat.TeacherID != actor.ID {
		return ErrNotOwner
	}
	return svc.repo.DeleteMaterialsByID(ctx, id)
}

func (svc *service) CreateNotice(ctx context.Context, teacherID string, nn NewNotice) (Notice, error) {
	if _, err := svc.schoolSvc.GetCourse(ctx, nn.CourseID); err != nil {
		return Notice{}, err
	}
	return svc.repo.CreateNotice(ctx, Notice{
		TeacherID:   teacherID,
		CourseID:    nn.CourseID,
		Title:       nn.Title,
		Description: nn.Description,
		CreatedAt:   nowFunc().UTC(),
	})
}

func (svc *service) QueryNotices(ctx context.Context, filter *NoticeFilter) ([]Notice, error) {
	return svc.repo.FilterNotices(ctx, filter)
}

func (svc *service) DeleteNotice(ctx context.Context, actor user.User, id string) error {
	ntc, err := svc.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && ntc.TeacherID != actor.ID {
		return ErrNotOwner
	}
	return svc.repo.DeleteNoticesByID(ctx, id)
}
