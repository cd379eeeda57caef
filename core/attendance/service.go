package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

type (
	Repository interface {
		GetCourse(ctx context.Context, schoolID, courseID string) (Course, error)
		CourseStudents(ctx context.Context, schoolID, courseID string) ([]Student, error)
		// SaveRecords upserts on (student, date): a second roll call of the same day replaces the first.
		SaveRecords(ctx context.Context, records ...Record) error
		RecordsByCourseDate(ctx context.Context, schoolID, courseID string, date time.Time) ([]Record, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		nowFunc  func() time.Time // mockable
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate, nowFunc: time.Now}
}

// Record saves the roll call and returns the absences it contains.
// Students must belong to the course; duplicated students keep their last status.
func (svc *Service) Record(ctx context.Context, schoolID, recordedBy string, na NewAttendance) ([]Record, []Absence, error) {
	if err := na.Validate(svc.validate); err != nil {
		return nil, nil, err
	}
	date, _ := time.Parse(core.DateLayout, na.Date) // validated

	course, err := svc.repo.GetCourse(ctx, schoolID, na.CourseID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "getting course")
	}
	students, err := svc.repo.CourseStudents(ctx, schoolID, course.ID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "listing course students")
	}
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.FullName
	}

	now := svc.nowFunc().UTC()
	byStudent := make(map[string]int, len(na.Records))
	records := make([]Record, 0, len(na.Records))
	var fields []core.FieldError
	for i, nr := range na.Records {
		if _, ok := names[nr.StudentID]; !ok {
			fields = append(fields, core.FieldError{
				Field: fmt.Sprintf("records[%d].studentId", i),
				Error: "student is not enrolled in this course",
			})
			continue
		}
		rec := Record{
			ID:         uuid.NewString(),
			SchoolID:   schoolID,
			CourseID:   course.ID,
			StudentID:  nr.StudentID,
			Date:       date,
			Status:     nr.Status,
			Note:       nr.Note,
			RecordedBy: recordedBy,
			CreatedAt:  now,
		}
		if j, ok := byStudent[nr.StudentID]; ok {
			records[j] = rec
			continue
		}
		byStudent[nr.StudentID] = len(records)
		records = append(records, rec)
	}
	if len(fields) > 0 {
		return nil, nil, core.NewValidationError(nil, fields...)
	}

	if err := svc.repo.SaveRecords(ctx, records...); err != nil {
		return nil, nil, errors.Wrap(err, "saving attendance")
	}

	var absences []Absence
	for _, rec := range records {
		if rec.Status == StatusAbsent {
			absences = append(absences, Absence{
				StudentID:   rec.StudentID,
				StudentName: names[rec.StudentID],
				CourseName:  course.Name,
				Date:        rec.Date,
			})
		}
	}
	return records, absences, nil
}

func (svc *Service) List(ctx context.Context, schoolID, courseID, date string) ([]Record, error) {
	d, err := time.Parse(core.DateLayout, core.CleanString(date))
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "date must be a date formatted as YYYY-MM-DD"})
	}
	records, err := svc.repo.RecordsByCourseDate(ctx, schoolID, core.CleanString(courseID), d)
	return records, errors.Wrap(err, "listing attendance")
}
