package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/koda-tec/sistema-escolar/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

type Course struct {
	ID       string `json:"id" db:"id"`
	SchoolID string `json:"schoolId" db:"school_id"`
	Name     string `json:"name" db:"name"`
}

type Student struct {
	ID       string `json:"id" db:"id"`
	CourseID string `json:"courseId" db:"course_id"`
	FullName string `json:"fullName" db:"full_name"`
}

// Record is the attendance of one student on one day. (StudentID, Date) is unique.
type Record struct {
	ID         string    `json:"id" db:"id"`
	SchoolID   string    `json:"schoolId" db:"school_id"`
	CourseID   string    `json:"courseId" db:"course_id"`
	StudentID  string    `json:"studentId" db:"student_id"`
	Date       time.Time `json:"date" db:"date"`
	Status     Status    `json:"status" db:"status"`
	Note       string    `json:"note,omitempty" db:"note"`
	RecordedBy string    `json:"recordedBy" db:"recorded_by"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Absence is what guardians get notified about.
type Absence struct {
	StudentID   string
	StudentName string
	CourseName  string
	Date        time.Time
}

// NewAttendance is the roll call of one course for one day.
type NewAttendance struct {
	CourseID string      `json:"courseId" validate:"required"`
	Date     string      `json:"date" validate:"required,isodate"`
	Records  []NewRecord `json:"records" validate:"required,min=1,dive"`
}

type NewRecord struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    Status `json:"status" validate:"required,oneof=present absent late"`
	Note      string `json:"note" validate:"max=500"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.CourseID = core.CleanString(na.CourseID)
	na.Date = core.CleanString(na.Date)
	for i := range na.Records {
		na.Records[i].StudentID = core.CleanString(na.Records[i].StudentID)
		na.Records[i].Status = Status(core.CleanString(string(na.Records[i].Status), true /* lower */))
		na.Records[i].Note = core.CleanString(na.Records[i].Note)
	}
	return validate.Struct(na)
}
