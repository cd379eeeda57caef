package testutil

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/koda-tec/sistema-escolar/core"
	"github.com/koda-tec/sistema-escolar/core/attendance"
	"github.com/koda-tec/sistema-escolar/core/notification"
	inmemdb "github.com/koda-tec/sistema-escolar/storage/database/inmem"
)

// Fixture ids. SchoolID holds everything below except OtherParent and OtherStudent.
const (
	SchoolID      = "school-1"
	OtherSchoolID = "school-2"

	DirectorID   = "dir-1"
	StaffID      = "staff-1"
	ParentAna    = "parent-ana"    // guardian of StudentLucas
	ParentBeto   = "parent-beto"   // guardian of StudentLucas and StudentSofi
	ParentNoMail = "parent-nomail" // guardian of StudentMia, no email
	OtherParent  = "parent-other"

	CourseA = "course-1a"
	CourseB = "course-2b"

	StudentLucas = "student-lucas" // CourseA
	StudentSofi  = "student-sofi"  // CourseA
	StudentMia   = "student-mia"   // CourseB
	StudentTomas = "student-tomas" // CourseB, no guardian linked
	OtherStudent = "student-other"
)

// Emails of the fixture identities that have one.
const (
	DirectorEmail = "directora@escuela.test"
	AnaEmail      = "ana@familia.test"
	BetoEmail     = "beto@familia.test"
	OtherEmail    = "otro@familia.test"
)

// Seed fills db with two schools, their staff, courses, students and guardians.
func Seed(db *inmemdb.DB) {
	db.AddSchool(SchoolID, "Escuela N° 1")
	db.AddSchool(OtherSchoolID, "Escuela N° 2")

	db.AddProfile(inmemdb.Profile{ID: DirectorID, SchoolID: SchoolID, Email: DirectorEmail, FullName: "Marta Directora", Role: "director"})
	db.AddProfile(inmemdb.Profile{ID: StaffID, SchoolID: SchoolID, Email: "preceptor@escuela.test", FullName: "Pablo Preceptor", Role: "staff"})
	db.AddProfile(inmemdb.Profile{ID: ParentAna, SchoolID: SchoolID, Email: AnaEmail, FullName: "Ana Gómez", Role: "parent"})
	db.AddProfile(inmemdb.Profile{ID: ParentBeto, SchoolID: SchoolID, Email: BetoEmail, FullName: "Beto Gómez", Role: "parent"})
	db.AddProfile(inmemdb.Profile{ID: ParentNoMail, SchoolID: SchoolID, FullName: "Carla Díaz", Role: "parent"})
	db.AddProfile(inmemdb.Profile{ID: OtherParent, SchoolID: OtherSchoolID, Email: OtherEmail, FullName: "Otro Padre", Role: "parent"})

	db.AddCourse(attendance.Course{ID: CourseA, SchoolID: SchoolID, Name: "1° A"})
	db.AddCourse(attendance.Course{ID: CourseB, SchoolID: SchoolID, Name: "2° B"})

	db.AddStudent(inmemdb.StudentRow{ID: StudentLucas, SchoolID: SchoolID, CourseID: CourseA, FullName: "Lucas Gómez"}, ParentAna, ParentBeto)
	db.AddStudent(inmemdb.StudentRow{ID: StudentSofi, SchoolID: SchoolID, CourseID: CourseA, FullName: "Sofía Gómez"}, ParentBeto)
	db.AddStudent(inmemdb.StudentRow{ID: StudentMia, SchoolID: SchoolID, CourseID: CourseB, FullName: "Mía Díaz"}, ParentNoMail)
	db.AddStudent(inmemdb.StudentRow{ID: StudentTomas, SchoolID: SchoolID, CourseID: CourseB, FullName: "Tomás Ruiz"})
	db.AddStudent(inmemdb.StudentRow{ID: OtherStudent, SchoolID: OtherSchoolID, CourseID: "course-other", FullName: "Otro Alumno"}, OtherParent)
}

// NewValidator returns a validator with every custom tag registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	notification.InitValidators(validate, translator)
	return validate, translator
}
