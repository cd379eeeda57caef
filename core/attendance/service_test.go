package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koda-tec/sistema-escolar/core"
)

type repoMock struct {
	courses  map[string]Course
	students map[string][]Student
	saved    []Record
	saveErr  error
}

func (r *repoMock) GetCourse(_ context.Context, schoolID, courseID string) (Course, error) {
	c, ok := r.courses[courseID]
	if !ok || c.SchoolID != schoolID {
		return Course{}, core.ErrNotFound
	}
	return c, nil
}

func (r *repoMock) CourseStudents(_ context.Context, _, courseID string) ([]Student, error) {
	return r.students[courseID], nil
}

func (r *repoMock) SaveRecords(_ context.Context, records ...Record) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, records...)
	return nil
}

func (r *repoMock) RecordsByCourseDate(_ context.Context, _, courseID string, date time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range r.saved {
		if rec.CourseID == courseID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService() (*Service, *repoMock) {
	repo := &repoMock{
		courses: map[string]Course{"c-1": {ID: "c-1", SchoolID: "s-1", Name: "3° A"}},
		students: map[string][]Student{"c-1": {
			{ID: "st-1", CourseID: "c-1", FullName: "Juan Pérez"},
			{ID: "st-2", CourseID: "c-1", FullName: "Lucía Gómez"},
			{ID: "st-3", CourseID: "c-1", FullName: "Tomás Ruiz"},
		}},
	}
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())
	svc := NewService(repo, validate)
	svc.nowFunc = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestService_Record(t *testing.T) {
	svc, repo := newTestService()

	records, absences, err := svc.Record(context.Background(), "s-1", "staff-1", NewAttendance{
		CourseID: "c-1",
		Date:     "2024-03-04",
		Records: []NewRecord{
			{StudentID: "st-1", Status: "ABSENT"},
			{StudentID: "st-2", Status: StatusPresent},
			{StudentID: "st-3", Status: StatusAbsent},
			{StudentID: "st-3", Status: StatusLate, Note: "llegó 8:20"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Len(t, repo.saved, 3)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []Absence{{StudentID: "st-1", StudentName: "Juan Pérez", CourseName: "3° A", Date: date}}, absences)
	assert.Equal(t, StatusLate, records[2].Status)
	assert.Equal(t, "staff-1", records[0].RecordedBy)

	listed, err := svc.List(context.Background(), "s-1", "c-1", "2024-03-04")
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestService_Record_Errors(t *testing.T) {
	tests := []struct {
		name       string
		schoolID   string
		na         NewAttendance
		wantValid  bool
		wantNotFnd bool
	}{
		{name: "bad date", schoolID: "s-1", na: NewAttendance{CourseID: "c-1", Date: "04/03/2024", Records: []NewRecord{{StudentID: "st-1", Status: StatusAbsent}}}, wantValid: true},
		{name: "no records", schoolID: "s-1", na: NewAttendance{CourseID: "c-1", Date: "2024-03-04"}, wantValid: true},
		{name: "bad status", schoolID: "s-1", na: NewAttendance{CourseID: "c-1", Date: "2024-03-04", Records: []NewRecord{{StudentID: "st-1", Status: "sick"}}}, wantValid: true},
		{name: "student of another course", schoolID: "s-1", na: NewAttendance{CourseID: "c-1", Date: "2024-03-04", Records: []NewRecord{{StudentID: "st-99", Status: StatusAbsent}}}, wantValid: true},
		{name: "course of another school", schoolID: "s-2", na: NewAttendance{CourseID: "c-1", Date: "2024-03-04", Records: []NewRecord{{StudentID: "st-1", Status: StatusAbsent}}}, wantNotFnd: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService()
			_, _, err := svc.Record(context.Background(), tt.schoolID, "staff-1", tt.na)
			require.Error(t, err)
			if tt.wantValid {
				_, isVErrs := err.(validator.ValidationErrors)
				assert.True(t, isVErrs || core.IsValidationError(err), "%T", err)
			}
			if tt.wantNotFnd {
				assert.Equal(t, core.ErrNotFound, errors.Cause(err))
			}
			assert.Empty(t, repo.saved)
		})
	}
}
