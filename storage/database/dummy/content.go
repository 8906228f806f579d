package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/chuo/core/content"
)

type ContentRepository struct {
	db *DB

	// FailCreates makes the Create/Upsert methods fail, for rollback tests.
	FailCreates error
	// FailFilters makes the Filter methods fail, for degradation tests.
	FailFilters error
}

var _ content.Repository = (*ContentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func matchIDs(id string, ids []string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func (repo *ContentRepository) CreateAssignment(ctx context.Context, asg content.Assignment) (content.Assignment, error) {
	if repo.FailCreates != nil {
		return content.Assignment{}, repo.FailCreates
	}

	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()

	asg.ID = uuid.New().String()
	repo.db.assignment.table[asg.ID] = &asg
	return asg, nil
}

func (repo *ContentRepository) GetAssignmentByID(ctx context.Context, id string) (content.Assignment, error) {
	repo.db.assignment.RLock()
	defer repo.db.assignment.RUnlock()

	if asg, ok := repo.db.assignment.table[id]; ok {
		return *asg, nil
	}
	return content.Assignment{}, content.ErrAssignmentNotFound
}

func (repo *ContentRepository) FilterAssignments(ctx context.Context, filter *content.AssignmentFilter) ([]content.Assignment, error) {
	if repo.FailFilters != nil {
		return nil, repo.FailFilters
	}

	repo.db.assignment.RLock()
	defer repo.db.assignment.RUnlock()

	if filter == nil {
		filter = &content.AssignmentFilter{}
	}

	var asgs []content.Assignment
	for _, asg := range repo.db.assignment.table {
		if filter.TeacherID != "" && asg.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && asg.SubjectID != filter.SubjectID {
			continue
		}
		if len(filter.SubjectIDs) > 0 && !matchIDs(asg.SubjectID, filter.SubjectIDs) {
			continue
		}
		asgs = append(asgs, *asg)
	}
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].CreatedAt.After(asgs[j].CreatedAt) })
	return asgs, nil
}

func (repo *ContentRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	repo.db.assignment.Lock()
	defer repo.db.assignment.Unlock()
	for _, id := range ids {
		delete(repo.db.assignment.table, id)
	}
	return nil
}

func (repo *ContentRepository) UpsertSubmission(ctx context.Context, sub content.Submission) (content.Submission, error) {
	if repo.FailCreates != nil {
		return content.Submission{}, repo.FailCreates
	}

	repo.db.submission.Lock()
	defer repo.db.submission.Unlock()

	key := sub.AssignmentID + "|" + sub.StudentID
	if orig, ok := repo.db.submission.table[key]; ok {
		sub.ID = orig.ID
	} else {
		sub.ID = uuid.New().String()
	}
	repo.db.submission.table[key] = &sub
	return sub, nil
}

func (repo *ContentRepository) FilterSubmissions(ctx context.Context, filter *content.SubmissionFilter) ([]content.Submission, error) {
	if repo.FailFilters != nil {
		return nil, repo.FailFilters
	}

	repo.db.submission.RLock()
	defer repo.db.submission.RUnlock()

	if filter == nil {
		filter = &content.SubmissionFilter{}
	}

	var subs []content.Submission
	for _, sub := range repo.db.submission.table {
		if filter.AssignmentID != "" && sub.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && sub.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, *sub)
	}
	return subs, nil
}

func (repo *ContentRepository) CreateNote(ctx context.Context, nt content.Note) (content.Note, error) {
	if repo.FailCreates != nil {
		return content.Note{}, repo.FailCreates
	}

	repo.db.note.Lock()
	defer repo.db.note.Unlock()

	nt.ID = uuid.New().String()
	repo.db.note.table[nt.ID] = &nt
	return nt, nil
}

func (repo *ContentRepository) GetNoteByID(ctx context.Context, id string) (content.Note, error) {
	repo.db.note.RLock()
	defer repo.db.note.RUnlock()

	if nt, ok := repo.db.note.table[id]; ok {
		return *nt, nil
	}
	return content.Note{}, content.ErrNoteNotFound
}

func (repo *ContentRepository) FilterNotes(ctx context.Context, filter *content.NoteFilter) ([]content.Note, error) {
	if repo.FailFilters != nil {
		return nil, repo.FailFilters
	}

	repo.db.note.RLock()
	defer repo.db.note.RUnlock()

	if filter == nil {
		filter = &content.NoteFilter{}
	}

	var notes []content.Note
	for _, nt := range repo.db.note.table {
		if filter.TeacherID != "" && nt.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && nt.SubjectID != filter.SubjectID {
			continue
		}
		if len(filter.SubjectIDs) > 0 && !matchIDs(nt.SubjectID, filter.SubjectIDs) {
			continue
		}
		notes = append(notes, *nt)
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return notes, nil
}

func (repo *ContentRepository) DeleteNotesByID(ctx context.Context, ids ...string) error {
	repo.db.note.Lock()
	defer repo.db.note.Unlock()
	for _, id := range ids {
		delete(repo.db.note.table, id)
	}
	return nil
}

func (repo *ContentRepository) CreateMaterial(ctx context.Context, mat content.Material) (content.Material, error) {
	if repo.FailCreates != nil {
		return content.Material{}, repo.FailCreates
	}

	repo.db.material.Lock()
	defer repo.db.material.Unlock()

	mat.ID = uuid.New().String()
	repo.db.material.table[mat.ID] = &mat
	return mat, nil
}

func (repo *ContentRepository) GetMaterialByID(ctx context.Context, id string) (content.Material, error) {
	repo.db.material.RLock()
	defer repo.db.material.RUnlock()

	if mat, ok := repo.db.material.table[id]; ok {
		return *mat, nil
	}
	return content.Material{}, content.ErrMaterialNotFound
}

func (repo *ContentRepository) FilterMaterials(ctx context.Context, filter *content.MaterialFilter) ([]content.Material, error) {
	if repo.FailFilters != nil {
		return nil, repo.FailFilters
	}

	repo.db.material.RLock()
	defer repo.db.material.RUnlock()

	if filter == nil {
		filter = &content.MaterialFilter{}
	}

	var mats []content.Material
	for _, mat := range repo.db.material.table {
		if filter.TeacherID != "" && mat.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && mat.SubjectID != filter.SubjectID {
			continue
		}
		if len(filter.SubjectIDs) > 0 && !matchIDs(mat.SubjectID, filter.SubjectIDs) {
			continue
		}
		mats = append(mats, *mat)
	}
	sort.Slice(mats, func(i, j int) bool { return mats[i].CreatedAt.After(mats[j].CreatedAt) })
	return mats, nil
}

func (repo *ContentRepository) DeleteMaterialsByID(ctx context.Context, ids ...string) error {
	repo.db.material.Lock()
	defer repo.db.material.Unlock()
	for _, id := range ids {
		delete(repo.db.material.table, id)
	}
	return nil
}

func (repo *ContentRepository) CreateNotice(ctx context.Context, ntc content.Notice) (content.Notice, error) {
	if repo.FailCreates != nil {
		return content.Notice{}, repo.FailCreates
	}

	repo.db.notice.Lock()
	defer repo.db.notice.Unlock()

	ntc.ID = uuid.New().String()
	repo.db.notice.table[ntc.ID] = &ntc
	return ntc, nil
}

func (repo *ContentRepository) GetNoticeByID(ctx context.Context, id string) (content.Notice, error) {
	repo.db.notice.RLock()
	defer repo.db.notice.RUnlock()

	if ntc, ok := repo.db.notice.table[id]; ok {
		return *ntc, nil
	}
	return content.Notice{}, content.ErrNoticeNotFound
}

func (repo *ContentRepository) FilterNotices(ctx context.Context, filter *content.NoticeFilter) ([]content.Notice, error) {
	if repo.FailFilters != nil {
		return nil, repo.FailFilters
	}

	repo.db.notice.RLock()
	defer repo.db.notice.RUnlock()

	if filter == nil {
		filter = &content.NoticeFilter{}
	}

	var ntcs []content.Notice
	for _, ntc := range repo.db.notice.table {
		if filter.TeacherID != "" && ntc.TeacherID != filter.TeacherID {
			continue
		}
		if filter.CourseID != "" && ntc.CourseID != filter.CourseID {
			continue
		}
		ntcs = append(ntcs, *ntc)
	}
	sort.Slice(ntcs, func(i, j int) bool { return ntcs[i].CreatedAt.After(ntcs[j].CreatedAt) })
	return ntcs, nil
}

func (repo *ContentRepository) DeleteNoticesByID(ctx context.Context, ids ...string) error {
	repo.db.notice.Lock()
	defer repo.db.notice.Unlock()
	for _, id := range ids {
		delete(repo.db.notice.table, id)
	}
	return nil
}
