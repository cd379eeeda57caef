package notification

import (
	"strconv"

	"github.com/koda-tec/sistema-escolar/core"
)

// EventKind identifies what happened in the school that is worth notifying.
type EventKind string

const (
	KindAttendanceAbsence      EventKind = "attendance-absence"
	KindCommunicationPublished EventKind = "communication-published"
	KindReportCardUploaded     EventKind = "report-card-uploaded"
	KindPaymentApproved        EventKind = "payment-approved"
	KindAccountLinked          EventKind = "account-linked"
	KindRequestResponded       EventKind = "request-responded"
	KindStaffAssignmentChanged EventKind = "staff-assignment-changed"
)

var AllKinds = []EventKind{
	KindAttendanceAbsence,
	KindCommunicationPublished,
	KindReportCardUploaded,
	KindPaymentApproved,
	KindAccountLinked,
	KindRequestResponded,
	KindStaffAssignmentChanged,
}

// ScopeKind is the targeting rule of a Scope.
type ScopeKind string

const (
	ScopeInstitution ScopeKind = "whole-institution"
	ScopeCourse      ScopeKind = "course"
	ScopeStudent     ScopeKind = "single-student"
	ScopeIdentity    ScopeKind = "single-identity"
	ScopeExplicit    ScopeKind = "explicit-list"
)

var AllScopeKinds = []ScopeKind{ScopeInstitution, ScopeCourse, ScopeStudent, ScopeIdentity, ScopeExplicit}

// Scope selects the identities an Event targets.
// ID holds the course, student or identity id; IDs is only used by explicit lists.
// Whole-institution scopes use the Event's SchoolID.
type Scope struct {
	Kind ScopeKind `json:"kind" validate:"required,scopekind"`
	ID   string    `json:"id,omitempty"`
	IDs  []string  `json:"ids,omitempty"`
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopeExplicit:
		return string(s.Kind) + "(" + strconv.Itoa(len(s.IDs)) + ")"
	case ScopeInstitution:
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.ID
}

// Event is built by a trigger source right after its own state change was committed.
// It lives for the duration of one Service.Notify call.
type Event struct {
	Kind      EventKind
	SchoolID  string
	Scope     Scope
	Data      map[string]string // template data; missing keys fall back to generic labels
	TargetURL string            // overrides the kind's default link when set
}

// Recipient is one resolved identity. Email and Name may be empty.
type Recipient struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Contact is a raw directory row as returned by a Directory.
type Contact struct {
	ID    string
	Email string
	Name  string
}

// Result is the outcome of one channel attempt for one recipient.
type Result string

const (
	ResultOK      Result = "ok"
	ResultFailed  Result = "failed"
	ResultSkipped Result = "skipped"
)

type DeliveryOutcome struct {
	RecipientID string `json:"recipientId"`
	Email       Result `json:"emailResult"`
	Push        Result `json:"pushResult"`
}

// Notified reports whether at least one channel reached the recipient.
func (o DeliveryOutcome) Notified() bool {
	return o.Email == ResultOK || o.Push == ResultOK
}

// Summary is what a trigger source gets back from a fan-out.
type Summary struct {
	TotalRecipients int               `json:"totalRecipients"`
	Notified        int               `json:"notifiedCount"`
	Outcomes        []DeliveryOutcome `json:"outcomes,omitempty"`
}

// Count returns how many outcomes have result r on the given channel ("email" or "push").
func (s Summary) Count(channel string, r Result) int {
	var n int
	for _, o := range s.Outcomes {
		switch {
		case channel == channelEmail && o.Email == r:
			n++
		case channel == channelPush && o.Push == r:
			n++
		}
	}
	return n
}

// PushMessage is the JSON payload delivered to the browser's service worker.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// emailData is the TemplateData of notification emails.
type emailData struct {
	RecipientName string
	Title         string
	Body          string
	URL           string
}

func newRecipient(c Contact) Recipient {
	return Recipient{
		ID:    core.CleanString(c.ID),
		Email: core.CleanString(c.Email, true /* lower */),
		Name:  core.CleanString(c.Name),
	}
}
