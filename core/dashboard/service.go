package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/attendance"
	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/school"
)

var nowFunc = time.Now // mockable

type (
	// SubjectAttendance pairs a subject with the student's attendance tally.
	SubjectAttendance struct {
		Subject school.Subject          `json:"subject"`
		Stats   attendance.SubjectStats `json:"stats"`
	}

	// AssignmentStatus flags an assignment from the student's point of view.
	// Overdue is computed at read time: past deadline and never submitted.
	AssignmentStatus struct {
		Assignment content.Assignment `json:"assignment"`
		Submitted  bool               `json:"submitted"`
		Overdue    bool               `json:"overdue"`
	}

	StudentDashboard struct {
		Course      school.Course      `json:"course"`
		Subjects    []school.Subject   `json:"subjects"`
		Attendance  []SubjectAttendance `json:"attendance"`
		Assignments []AssignmentStatus `json:"assignments"`
		Notes       []content.Note     `json:"notes"`
		Materials   []content.Material `json:"materials"`
		Notices     []content.Notice   `json:"notices"`
		// OverallAttendance averages the per-subject percentages,
		// ignoring subjects with no sessions yet.
		OverallAttendance int `json:"overall_attendance"`
	}

	// AssignmentProgress pairs a teacher's assignment with its submission count.
	AssignmentProgress struct {
		Assignment content.Assignment `json:"assignment"`
		Submitted  int                `json:"submitted"`
	}

	SubjectSessions struct {
		Subject  school.Subject               `json:"subject"`
		Sessions []attendance.SessionSummary `json:"sessions"`
	}

	TeacherSummary struct {
		Subjects    []school.Subject     `json:"subjects"`
		Assignments []AssignmentProgress `json:"assignments"`
		Notes       []content.Note       `json:"notes"`
		Materials   []content.Material   `json:"materials"`
		Notices     []content.Notice     `json:"notices"`
		Sessions    []SubjectSessions    `json:"sessions"`
	}

	ServiceInterface interface {
		// StudentDashboard assembles the student's home view. Each section
		// is fetched independently; a failing section is logged and left
		// empty rather than failing the whole view.
		StudentDashboard(ctx context.Context, studentID string) (StudentDashboard, error)
		// TeacherSummary assembles the teacher's home view with the same
		// per-section degradation.
		TeacherSummary(ctx context.Context, teacherID string) (TeacherSummary, error)
	}

	service struct {
		schoolSvc     school.ServiceInterface
		attendanceSvc attendance.ServiceInterface
		contentSvc    content.ServiceInterface
		logger        core.Logger
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(
	schoolSvc school.ServiceInterface,
	attendanceSvc attendance.ServiceInterface,
	contentSvc content.ServiceInterface,
	logger core.Logger,
) *service {
	return &service{
		schoolSvc:     schoolSvc,
		attendanceSvc: attendanceSvc,
		contentSvc:    contentSvc,
		logger:        logger,
	}
}

// degrade logs a failed section fetch; the section renders empty.
func (svc *service) degrade(section string, err error) {
	svc.logger.Error("dashboard: fetching "+section, err)
}

func (svc *service) StudentDashboard(ctx context.Context, studentID string) (StudentDashboard, error) {
	// enrollment anchors the whole view; without it there is nothing to show
	crs, err := svc.schoolSvc.EnrolledCourse(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	dash := StudentDashboard{Course: crs}

	subs, err := svc.schoolSvc.QuerySubjects(ctx, &school.SubjectFilter{CourseID: crs.ID})
	if err != nil {
		svc.degrade("subjects", err)
		subs = nil
	}
	dash.Subjects = subs

	subIDs := make([]string, 0, len(subs))
	for _, sub := range subs {
		subIDs = append(subIDs, sub.ID)
	}

	var pctSum, pctCount int
	for _, sub := range subs {
		stats, err := svc.attendanceSvc.StudentSubjectStats(ctx, studentID, sub.ID)
		if err != nil {
			svc.degrade("attendance", err)
			continue
		}
		dash.Attendance = append(dash.Attendance, SubjectAttendance{Subject: sub, Stats: stats})
		if stats.Total > 0 {
			pctSum += stats.Percent
			pctCount++
		}
	}
	if pctCount > 0 {
		dash.OverallAttendance = int(math.Round(float64(pctSum) / float64(pctCount)))
	}

	if len(subIDs) > 0 {
		asgs, err := svc.contentSvc.QueryAssignments(ctx, &content.AssignmentFilter{SubjectIDs: subIDs})
		if err != nil {
			svc.degrade("assignments", err)
		} else {
			subsByAsg := make(map[string]bool)
			mySubs, err := svc.contentSvc.QuerySubmissions(ctx, &content.SubmissionFilter{StudentID: studentID})
			if err != nil {
				svc.degrade("submissions", err)
			} else {
				for _, s := range mySubs {
					subsByAsg[s.AssignmentID] = true
				}
			}
			now := nowFunc().UTC()
			for _, asg := range asgs {
				submitted := subsByAsg[asg.ID]
				dash.Assignments = append(dash.Assignments, AssignmentStatus{
					Assignment: asg,
					Submitted:  submitted,
					Overdue:    now.After(asg.Deadline) && !submitted,
				})
			}
		}

		if notes, err := svc.contentSvc.QueryNotes(ctx, &content.NoteFilter{SubjectIDs: subIDs}); err != nil {
			svc.degrade("notes", err)
		} else {
			dash.Notes = notes
		}
		if mats, err := svc.contentSvc.QueryMaterials(ctx, &content.MaterialFilter{SubjectIDs: subIDs}); err != nil {
			svc.degrade("materials", err)
		} else {
			dash.Materials = mats
		}
	}

	if notices, err := svc.contentSvc.QueryNotices(ctx, &content.NoticeFilter{CourseID: crs.ID}); err != nil {
		svc.degrade("notices", err)
	} else {
		dash.Notices = notices
	}

	return dash, nil
}

func (svc *service) TeacherSummary(ctx context.Context, teacherID string) (TeacherSummary, error) {
	var sum TeacherSummary

	subs, err := svc.schoolSvc.QuerySubjects(ctx, &school.SubjectFilter{TeacherID: teacherID})
	if err != nil {
		return TeacherSummary{}, err
	}
	sum.Subjects = subs

	if asgs, err := svc.contentSvc.QueryAssignments(ctx, &content.AssignmentFilter{TeacherID: teacherID}); err != nil {
		svc.degrade("assignments", err)
	} else {
		for _, asg := range asgs {
			prog := AssignmentProgress{Assignment: asg}
			if subs, err := svc.contentSvc.QuerySubmissions(ctx, &content.SubmissionFilter{AssignmentID: asg.ID}); err != nil {
				svc.degrade("submissions", err)
			} else {
				prog.Submitted = len(subs)
			}
			sum.Assignments = append(sum.Assignments, prog)
		}
	}

	if notes, err := svc.contentSvc.QueryNotes(ctx, &content.NoteFilter{TeacherID: teacherID}); err != nil {
		svc.degrade("notes", err)
	} else {
		sum.Notes = notes
	}
	if mats, err := svc.contentSvc.QueryMaterials(ctx, &content.MaterialFilter{TeacherID: teacherID}); err != nil {
		svc.degrade("materials", err)
	} else {
		sum.Materials = mats
	}
	if notices, err := svc.contentSvc.QueryNotices(ctx, &content.NoticeFilter{TeacherID: teacherID}); err != nil {
		svc.degrade("notices", err)
	} else {
		sum.Notices = notices
	}

	for _, sub := range subs {
		sessions, err := svc.attendanceSvc.Sessions(ctx, teacherID, sub.ID)
		if err != nil {
			svc.degrade("sessions", err)
			continue
		}
		sum.Sessions = append(sum.Sessions, SubjectSessions{Subject: sub, Sessions: sessions})
	}

	return sum, nil
}
