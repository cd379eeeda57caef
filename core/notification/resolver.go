package notification

import (
	"context"

	"github.com/pkg/errors"

	"github.com/koda-tec/sistema-escolar/core"
)

var (
	// errors
	ErrInvalidScope = errors.New("invalid scope selector")
	ErrResolution   = errors.New("resolving recipients")
)

// Directory is the read side of the school directory needed to resolve recipients.
// Every query is constrained to one school.
type Directory interface {
	// GuardiansBySchool returns one row per (student, guardian) link of the school.
	GuardiansBySchool(ctx context.Context, schoolID string) ([]Contact, error)
	// GuardiansByCourse returns one row per (student, guardian) link of students enrolled in the course.
	GuardiansByCourse(ctx context.Context, schoolID, courseID string) ([]Contact, error)
	// GuardiansByStudent returns the guardians linked to one student.
	GuardiansByStudent(ctx context.Context, schoolID, studentID string) ([]Contact, error)
	// ProfilesByID returns the profiles of the school matching the given ids.
	ProfilesByID(ctx context.Context, schoolID string, ids ...string) ([]Contact, error)
}

// Resolver translates a Scope into a de-duplicated list of recipients.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve returns the recipients targeted by scope within the given school.
// An empty list is a valid result. Errors are either ErrInvalidScope or a store failure.
func (r *Resolver) Resolve(ctx context.Context, schoolID string, scope Scope) ([]Recipient, error) {
	schoolID = core.CleanString(schoolID)
	if schoolID == "" {
		return nil, errors.Wrap(ErrInvalidScope, "missing school")
	}

	var (
		contacts []Contact
		err      error
	)
	switch scope.Kind {
	case ScopeInstitution:
		contacts, err = r.dir.GuardiansBySchool(ctx, schoolID)
	case ScopeCourse:
		id := core.CleanString(scope.ID)
		if id == "" {
			return nil, errors.Wrap(ErrInvalidScope, "missing course id")
		}
		contacts, err = r.dir.GuardiansByCourse(ctx, schoolID, id)
	case ScopeStudent:
		id := core.CleanString(scope.ID)
		if id == "" {
			return nil, errors.Wrap(ErrInvalidScope, "missing student id")
		}
		contacts, err = r.dir.GuardiansByStudent(ctx, schoolID, id)
	case ScopeIdentity:
		id := core.CleanString(scope.ID)
		if id == "" {
			return nil, errors.Wrap(ErrInvalidScope, "missing identity id")
		}
		contacts, err = r.dir.ProfilesByID(ctx, schoolID, id)
	case ScopeExplicit:
		ids := uniqueStrings(core.CleanStrings(scope.IDs))
		if len(ids) == 0 {
			return nil, errors.Wrap(ErrInvalidScope, "empty explicit list")
		}
		contacts, err = r.dir.ProfilesByID(ctx, schoolID, ids...)
	default:
		return nil, errors.Wrapf(ErrInvalidScope, "unknown kind %q", scope.Kind)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "querying directory for %s", scope)
	}
	return dedupe(contacts), nil
}

// dedupe normalizes contacts and keeps the first row of every identity.
// Identities are compared by id only: two identities sharing an email address are both kept.
func dedupe(contacts []Contact) []Recipient {
	seen := make(map[string]int, len(contacts))
	recipients := make([]Recipient, 0, len(contacts))
	for _, c := range contacts {
		rcpt := newRecipient(c)
		if rcpt.ID == "" {
			continue
		}
		if i, ok := seen[rcpt.ID]; ok {
			// complete a previous partial row
			if recipients[i].Email == "" {
				recipients[i].Email = rcpt.Email
			}
			if recipients[i].Name == "" {
				recipients[i].Name = rcpt.Name
			}
			continue
		}
		seen[rcpt.ID] = len(recipients)
		recipients = append(recipients, rcpt)
	}
	return recipients
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
