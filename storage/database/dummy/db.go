package dummydb

import (
	"sync"

	"github.com/trezcool/chuo/core/attendance"
	"github.com/trezcool/chuo/core/content"
	"github.com/trezcool/chuo/core/school"
	"github.com/trezcool/chuo/core/user"
)

type (
	DB struct {
		user           *userTable
		course         *courseTable
		subject        *subjectTable
		enrollment     *enrollmentTable
		teacherSubject *teacherSubjectTable
		attendance     *attendanceTable
		assignment     *assignmentTable
		submission     *submissionTable
		note           *noteTable
		material       *materialTable
		notice         *noticeTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*school.Course
	}

	subjectTable struct {
		sync.RWMutex
		table map[string]*school.Subject
	}

	// studentID -> courseID; one course per student
	enrollmentTable struct {
		sync.RWMutex
		table map[string]string
	}

	// "teacherID|subjectID" membership set
	teacherSubjectTable struct {
		sync.RWMutex
		table map[string]bool
	}

	// keyed on "studentID|subjectID|date"
	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*content.Assignment
	}

	// keyed on "assignmentID|studentID"
	submissionTable struct {
		sync.RWMutex
		table map[string]*content.Submission
	}

	noteTable struct {
		sync.RWMutex
		table map[string]*content.Note
	}

	materialTable struct {
		sync.RWMutex
		table map[string]*content.Material
	}

	noticeTable struct {
		sync.RWMutex
		table map[string]*content.Notice
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:           &userTable{table: make(map[string]*user.User)},
		course:         &courseTable{table: make(map[string]*school.Course)},
		subject:        &subjectTable{table: make(map[string]*school.Subject)},
		enrollment:     &enrollmentTable{table: make(map[string]string)},
		teacherSubject: &teacherSubjectTable{table: make(map[string]bool)},
		attendance:     &attendanceTable{table: make(map[string]*attendance.Record)},
		assignment:     &assignmentTable{table: make(map[string]*content.Assignment)},
		submission:     &submissionTable{table: make(map[string]*content.Submission)},
		note:           &noteTable{table: make(map[string]*content.Note)},
		material:       &materialTable{table: make(map[string]*content.Material)},
		notice:         &noticeTable{table: make(map[string]*content.Notice)},
	}
	return db, nil
}
