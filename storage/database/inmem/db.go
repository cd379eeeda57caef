package inmemdb

import (
	"sort"
	"sync"

	"github.com/koda-tec/sistema-escolar/core/attendance"
	"github.com/koda-tec/sistema-escolar/core/billing"
	"github.com/koda-tec/sistema-escolar/core/push"
)

type (
	Profile struct {
		ID       string
		SchoolID string
		Email    string
		FullName string
		Role     string
	}

	StudentRow struct {
		ID       string
		SchoolID string
		CourseID string
		FullName string
	}

	// DB keeps every table in memory. It is safe for concurrent use.
	DB struct {
		mutex sync.RWMutex

		schools       map[string]string // {id: name}
		profiles      map[string]Profile
		courses       map[string]attendance.Course
		students      map[string]StudentRow
		guardians     map[string][]string // {studentID: guardianIDs}
		subscriptions map[string]push.Subscription
		attendance    map[string]attendance.Record // {studentID|date: record}
		billing       map[string]billing.Subscription
		payments      map[string]billing.Payment
	}
)

func NewDB() *DB {
	return &DB{
		schools:       make(map[string]string),
		profiles:      make(map[string]Profile),
		courses:       make(map[string]attendance.Course),
		students:      make(map[string]StudentRow),
		guardians:     make(map[string][]string),
		subscriptions: make(map[string]push.Subscription),
		attendance:    make(map[string]attendance.Record),
		billing:       make(map[string]billing.Subscription),
		payments:      make(map[string]billing.Payment),
	}
}

func (db *DB) AddSchool(id, name string) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.schools[id] = name
}

func (db *DB) AddProfile(p Profile) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.profiles[p.ID] = p
}

func (db *DB) AddCourse(c attendance.Course) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.courses[c.ID] = c
}

func (db *DB) AddStudent(st StudentRow, guardianIDs ...string) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.students[st.ID] = st
	db.guardians[st.ID] = append(db.guardians[st.ID], guardianIDs...)
}

// sortedStudents returns the students matching keep, ordered by id.
func (db *DB) sortedStudents(keep func(StudentRow) bool) []StudentRow {
	out := make([]StudentRow, 0)
	for _, st := range db.students {
		if keep(st) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
