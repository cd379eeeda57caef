package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
)

type attendanceRow struct {
	ID         string      `db:"id"`
	SchoolID   string      `db:"school_id"`
	CourseID   string      `db:"course_id"`
	StudentID  string      `db:"student_id"`
	Date       time.Time   `db:"date"`
	Status     string      `db:"status"`
	Note       null.String `db:"note"`
	RecordedBy string      `db:"recorded_by"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:         r.ID,
		SchoolID:   r.SchoolID,
		CourseID:   r.CourseID,
		StudentID:  r.StudentID,
		Date:       r.Date.UTC(),
		Status:     attendance.Status(r.Status),
		Note:       r.Note.String,
		RecordedBy: r.RecordedBy,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db core.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db core.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo attendanceRepository) GetCourse(ctx context.Context, schoolID, courseID string) (attendance.Course, error) {
	var c attendance.Course
	q := `SELECT id, school_id, name FROM courses WHERE school_id = $1 AND id = $2`
	if err := repo.db.GetContext(ctx, &c, q, schoolID, courseID); err != nil {
		return attendance.Course{}, notFound(err)
	}
	return c, nil
}

func (repo attendanceRepository) CourseStudents(ctx context.Context, schoolID, courseID string) ([]attendance.Student, error) {
	students := make([]attendance.Student, 0)
	q := `SELECT id, course_id, full_name FROM students WHERE school_id = $1 AND course_id = $2 ORDER BY full_name`
	if err := repo.db.SelectContext(ctx, &students, q, schoolID, courseID); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo attendanceRepository) SaveRecords(ctx context.Context, records ...attendance.Record) error {
	q := `
INSERT INTO attendance (id, school_id, course_id, student_id, date, status, note, recorded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (student_id, date) DO UPDATE
SET status = EXCLUDED.status, note = EXCLUDED.note, recorded_by = EXCLUDED.recorded_by, created_at = EXCLUDED.created_at`

	return core.InTx(ctx, repo.db, func(tx core.DBExecutor) error {
		for _, r := range records {
			_, err := tx.ExecContext(ctx, q,
				r.ID, r.SchoolID, r.CourseID, r.StudentID, r.Date, string(r.Status),
				null.NewString(r.Note, r.Note != ""), r.RecordedBy, r.CreatedAt,
			)
			if err != nil {
				return errors.Wrapf(err, "upserting attendance of %s", r.StudentID)
			}
		}
		return nil
	})
}

func (repo attendanceRepository) RecordsByCourseDate(ctx context.Context, schoolID, courseID string, date time.Time) ([]attendance.Record, error) {
	var rows []attendanceRow
	q := `
SELECT id, school_id, course_id, student_id, date, status, note, recorded_by, created_at
FROM attendance WHERE school_id = $1 AND course_id = $2 AND date = $3 ORDER BY student_id`
	if err := repo.db.SelectContext(ctx, &rows, q, schoolID, courseID, date); err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}
