package inmemdb

import (
	"context"
	"sort"

	"github.com/koda-tec/sistema-escolar/core/notification"
)

type directoryRepository struct {
	db *DB
}

var _ notification.Directory = (*directoryRepository)(nil)

func NewDirectoryRepository(db *DB) notification.Directory {
	return &directoryRepository{db: db}
}

func (repo *directoryRepository) guardians(schoolID string, keep func(StudentRow) bool) []notification.Contact {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := make([]notification.Contact, 0)
	students := repo.db.sortedStudents(func(st StudentRow) bool { return st.SchoolID == schoolID && keep(st) })
	for _, st := range students {
		ids := append([]string(nil), repo.db.guardians[st.ID]...)
		sort.Strings(ids)
		for _, id := range ids {
			if p, ok := repo.db.profiles[id]; ok && p.SchoolID == schoolID {
				contacts = append(contacts, notification.Contact{ID: p.ID, Email: p.Email, Name: p.FullName})
			}
		}
	}
	return contacts
}

func (repo *directoryRepository) GuardiansBySchool(_ context.Context, schoolID string) ([]notification.Contact, error) {
	return repo.guardians(schoolID, func(StudentRow) bool { return true }), nil
}

func (repo *directoryRepository) GuardiansByCourse(_ context.Context, schoolID, courseID string) ([]notification.Contact, error) {
	return repo.guardians(schoolID, func(st StudentRow) bool { return st.CourseID == courseID }), nil
}

func (repo *directoryRepository) GuardiansByStudent(_ context.Context, schoolID, studentID string) ([]notification.Contact, error) {
	return repo.guardians(schoolID, func(st StudentRow) bool { return st.ID == studentID }), nil
}

func (repo *directoryRepository) ProfilesByID(_ context.Context, schoolID string, ids ...string) ([]notification.Contact, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	contacts := make([]notification.Contact, 0, len(ids))
	for _, id := range ids {
		if p, ok := repo.db.profiles[id]; ok && p.SchoolID == schoolID {
			contacts = append(contacts, notification.Contact{ID: p.ID, Email: p.Email, Name: p.FullName})
		}
	}
	sort.Slice(contacts, func(i, j int) bool { return contacts[i].ID < contacts[j].ID })
	return contacts, nil
}
