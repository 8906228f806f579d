package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one student's attendance for one subject on one date.
// At most one Record exists per (student, subject, date); resubmission
// overwrites the status.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	SubjectID string    `json:"subject_id"`
	TeacherID string    `json:"teacher_id"`
	Date      time.Time `json:"date"` // calendar date, midnight UTC
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

const dateLayout = "2006-01-02"

type Entry struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

// NewBatch is a teacher's attendance submission for a subject on a date.
type NewBatch struct {
	SubjectID string  `json:"subject_id" validate:"required,uuid4"`
	Date      string  `json:"date" validate:"required,date_"`
	Entries   []Entry `json:"entries" validate:"required,min=1,dive"`
}

func (nb *NewBatch) Validate(validate *validator.Validate) error {
	return validate.Struct(nb)
}

// ParseDate parses the batch date as a calendar date at midnight UTC.
func (nb *NewBatch) ParseDate() (time.Time, error) {
	return time.Parse(dateLayout, nb.Date)
}

// SessionSummary aggregates one marked session (subject+date) for the
// teacher summary view.
type SessionSummary struct {
	Date    time.Time `json:"date"`
	Present int       `json:"present"`
	Absent  int       `json:"absent"`
}

// SubjectStats is a student's attendance tally for one subject.
type SubjectStats struct {
	Present int `json:"present"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}

// RecordFilter narrows record queries; fields are AND'ed, zero values ignored.
type RecordFilter struct {
	StudentID string
	SubjectID string
	TeacherID string
	Date      time.Time
}
