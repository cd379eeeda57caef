package notification

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koda-tec/sistema-escolar/core"
)

func TestNewEvent_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	tests := []struct {
		name      string
		ne        NewEvent
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			ne:   NewEvent{Kind: " Communication-Published ", Scope: Scope{Kind: "course", ID: "c-1"}},
		},
		{
			name: "valid explicit list",
			ne:   NewEvent{Kind: KindAccountLinked, Scope: Scope{Kind: ScopeExplicit, IDs: []string{"p-1", " "}}},
		},
		{
			name:      "missing kind",
			ne:        NewEvent{Scope: Scope{Kind: ScopeInstitution}},
			wantField: "eventKind",
			wantMsg:   "this field is required",
		},
		{
			name:      "unknown kind",
			ne:        NewEvent{Kind: "birthday", Scope: Scope{Kind: ScopeInstitution}},
			wantField: "eventKind",
			wantMsg:   "eventKind must be a known event kind",
		},
		{
			name:      "unknown scope kind",
			ne:        NewEvent{Kind: KindAccountLinked, Scope: Scope{Kind: "planet"}},
			wantField: "kind",
		},
		{
			name:      "course without id",
			ne:        NewEvent{Kind: KindAccountLinked, Scope: Scope{Kind: ScopeCourse}},
			wantField: "id",
			wantMsg:   "id is required for this scope kind",
		},
		{
			name:      "explicit without ids",
			ne:        NewEvent{Kind: KindAccountLinked, Scope: Scope{Kind: ScopeExplicit, IDs: []string{""}}},
			wantField: "ids",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ne.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			verrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, verrs, 1)
			assert.Equal(t, tt.wantField, verrs[0].Field())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, verrs[0].Translate(translator))
			}
		})
	}
}

func TestNewEvent_Event(t *testing.T) {
	ne := NewEvent{Kind: KindAccountLinked, Scope: Scope{Kind: ScopeIdentity, ID: "p-1"}, Data: map[string]string{"student": "Juan"}}
	ev := ne.Event("s-1")
	assert.Equal(t, "s-1", ev.SchoolID)
	assert.Equal(t, ne.Scope, ev.Scope)
	assert.Equal(t, "Juan", ev.Data["student"])
}
