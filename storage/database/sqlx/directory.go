package sqlxrepos

import (
	"context"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/notification"
)

// guardians of the students of a school; both sides of the link must belong to it
const guardiansQuery = `
SELECT p.id, p.email, p.full_name
FROM student_guardians sg
JOIN students s ON s.id = sg.student_id
JOIN profiles p ON p.id = sg.guardian_id
WHERE s.school_id = $1 AND p.school_id = $1`

type contactRow struct {
	ID       string      `db:"id"`
	Email    null.String `db:"email"`
	FullName null.String `db:"full_name"`
}

type directoryRepository struct {
	exec core.DBExecutor
}

var _ notification.Directory = (*directoryRepository)(nil) // interface compliance check

func NewDirectoryRepository(exec core.DBExecutor) *directoryRepository {
	return &directoryRepository{exec: exec}
}

func (repo directoryRepository) query(ctx context.Context, q string, args ...interface{}) ([]notification.Contact, error) {
	var rows []contactRow
	if err := repo.exec.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting contacts")
	}
	contacts := make([]notification.Contact, 0, len(rows))
	for _, r := range rows {
		contacts = append(contacts, notification.Contact{ID: r.ID, Email: r.Email.String, Name: r.FullName.String})
	}
	return contacts, nil
}

func (repo directoryRepository) GuardiansBySchool(ctx context.Context, schoolID string) ([]notification.Contact, error) {
	return repo.query(ctx, guardiansQuery+" ORDER BY s.id, p.id", schoolID)
}

func (repo directoryRepository) GuardiansByCourse(ctx context.Context, schoolID, courseID string) ([]notification.Contact, error) {
	return repo.query(ctx, guardiansQuery+" AND s.course_id = $2 ORDER BY s.id, p.id", schoolID, courseID)
}

func (repo directoryRepository) GuardiansByStudent(ctx context.Context, schoolID, studentID string) ([]notification.Contact, error) {
	return repo.query(ctx, guardiansQuery+" AND s.id = $2 ORDER BY p.id", schoolID, studentID)
}

func (repo directoryRepository) ProfilesByID(ctx context.Context, schoolID string, ids ...string) ([]notification.Contact, error) {
	if len(ids) == 0 {
		return []notification.Contact{}, nil
	}
	q := `SELECT id, email, full_name FROM profiles WHERE school_id = $1 AND id = ANY($2) ORDER BY id`
	return repo.query(ctx, q, schoolID, pq.Array(ids))
}
