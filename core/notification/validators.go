package notification

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/koda-tec/sistema-escolar/core"
)

var (
	eventKindTag  = "eventkind"
	eventKindText = "{0} must be a known event kind"

	scopeKindTag  = "scopekind"
	scopeKindText = "{0} must be one of whole-institution, course, single-student, single-identity, explicit-list"

	scopeIDTag  = "scopeid"
	scopeIDText = "{0} is required for this scope kind"

	scopeIDsTag  = "scopeids"
	scopeIDsText = "{0} must contain at least one id"
)

// InitValidators registers the validation tags of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(eventKindTag, eventKindValidation)
	core.RegisterCustomTranslation(validate, translator, eventKindTag, eventKindText)

	_ = validate.RegisterValidation(scopeKindTag, scopeKindValidation)
	core.RegisterCustomTranslation(validate, translator, scopeKindTag, scopeKindText)

	validate.RegisterStructValidation(scopeStructValidation, Scope{})
	core.RegisterCustomTranslation(validate, translator, scopeIDTag, scopeIDText)
	core.RegisterCustomTranslation(validate, translator, scopeIDsTag, scopeIDsText)
}

func eventKindValidation(fl validator.FieldLevel) bool {
	return KnownKind(EventKind(fl.Field().String()))
}

func scopeKindValidation(fl validator.FieldLevel) bool {
	kind := ScopeKind(fl.Field().String())
	for _, k := range AllScopeKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func scopeStructValidation(sl validator.StructLevel) {
	scope := sl.Current().Interface().(Scope)
	switch scope.Kind {
	case ScopeCourse, ScopeStudent, ScopeIdentity:
		if core.CleanString(scope.ID) == "" {
			sl.ReportError(scope.ID, "id", "ID", scopeIDTag, "")
		}
	case ScopeExplicit:
		if len(core.CleanStrings(scope.IDs)) == 0 {
			sl.ReportError(scope.IDs, "ids", "IDs", scopeIDsTag, "")
		}
	}
}

// NewEvent is what a trigger request provides to fan out one event.
// The school always comes from the caller's identity.
type NewEvent struct {
	Kind      EventKind         `json:"eventKind" validate:"required,eventkind"`
	Scope     Scope             `json:"scopeSelector"`
	Data      map[string]string `json:"templateData"`
	TargetURL string            `json:"targetUrl" validate:"omitempty,max=512"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Kind = EventKind(core.CleanString(string(ne.Kind), true /* lower */))
	ne.Scope.Kind = ScopeKind(core.CleanString(string(ne.Scope.Kind), true /* lower */))
	ne.Scope.ID = core.CleanString(ne.Scope.ID)
	ne.Scope.IDs = core.CleanStrings(ne.Scope.IDs)
	ne.TargetURL = core.CleanString(ne.TargetURL)
	return validate.Struct(ne)
}

// Event binds the request to a school.
func (ne NewEvent) Event(schoolID string) Event {
	return Event{
		Kind:      ne.Kind,
		SchoolID:  schoolID,
		Scope:     ne.Scope,
		Data:      ne.Data,
		TargetURL: ne.TargetURL,
	}
}
