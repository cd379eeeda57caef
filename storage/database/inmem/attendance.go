package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func attendanceKey(studentID string, date time.Time) string {
	return studentID + "|" + date.Format(core.DateLayout)
}

func (repo *attendanceRepository) GetCourse(_ context.Context, schoolID, courseID string) (attendance.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	if c, ok := repo.db.courses[courseID]; ok && c.SchoolID == schoolID {
		return c, nil
	}
	return attendance.Course{}, core.ErrNotFound
}

func (repo *attendanceRepository) CourseStudents(_ context.Context, schoolID, courseID string) ([]attendance.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := repo.db.sortedStudents(func(st StudentRow) bool { return st.SchoolID == schoolID && st.CourseID == courseID })
	students := make([]attendance.Student, 0, len(rows))
	for _, st := range rows {
		students = append(students, attendance.Student{ID: st.ID, CourseID: st.CourseID, FullName: st.FullName})
	}
	return students, nil
}

func (repo *attendanceRepository) SaveRecords(_ context.Context, records ...attendance.Record) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, r := range records {
		key := attendanceKey(r.StudentID, r.Date)
		if prev, ok := repo.db.attendance[key]; ok {
			r.ID = prev.ID // upsert keeps the row
		}
		repo.db.attendance[key] = r
	}
	return nil
}

func (repo *attendanceRepository) RecordsByCourseDate(_ context.Context, schoolID, courseID string, date time.Time) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	day := date.Format(core.DateLayout)
	records := make([]attendance.Record, 0)
	for _, r := range repo.db.attendance {
		if r.SchoolID == schoolID && r.CourseID == courseID && r.Date.Format(core.DateLayout) == day {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].StudentID < records[j].StudentID })
	return records, nil
}
