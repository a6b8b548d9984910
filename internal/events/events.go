package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	CategoryCreated Kind = "category.created"
	CategoryUpdated Kind = "category.updated"
	CategoryDeleted Kind = "category.deleted"

	ScopeCreated Kind = "scope.created"
	ScopeUpdated Kind = "scope.updated"
	ScopeDeleted Kind = "scope.deleted"

	ItemSaved        Kind = "item.saved"
	ItemUnpublished  Kind = "item.unpublished"
	ItemTermsChanged Kind = "item.terms_changed"
	ItemDeleted      Kind = "item.deleted"

	QuizConfigChanged Kind = "quiz_config.changed"
)

var kinds = []Kind{
	CategoryCreated, CategoryUpdated, CategoryDeleted,
	ScopeCreated, ScopeUpdated, ScopeDeleted,
	ItemSaved, ItemUnpublished, ItemTermsChanged, ItemDeleted,
	QuizConfigChanged,
}

// Kinds lists every event kind.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

func (k Kind) Valid() bool {
	for _, v := range kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Subject is the entity family an event is about: category, scope, item or quiz_config.
func (k Kind) Subject() string {
	s, _, _ := strings.Cut(string(k), ".")
	return s
}

// Tags are an item's category and scope assignments.
type Tags struct {
	CategoryIDs []uuid.UUID `json:"category_ids,omitempty"`
	ScopeIDs    []uuid.UUID `json:"scope_ids,omitempty"`
}

// Event is a classification mutation that has already been committed.
type Event struct {
	Kind       Kind      `json:"kind"`
	CategoryID uuid.UUID `json:"category_id,omitempty"`
	ScopeID    uuid.UUID `json:"scope_id,omitempty"`
	ItemID     uuid.UUID `json:"item_id,omitempty"`

	// PreviousParentID is a category's parent before an update moved it.
	PreviousParentID *uuid.UUID `json:"previous_parent_id,omitempty"`
	// Previous holds an item's tags before the mutation; current tags are loaded.
	Previous *Tags `json:"previous,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}

// Validate checks the event names the id its kind requires.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	var missing bool
	switch e.Kind.Subject() {
	case "category", "quiz_config":
		missing = e.CategoryID == uuid.Nil
	case "scope":
		missing = e.ScopeID == uuid.Nil
	case "item":
		missing = e.ItemID == uuid.Nil
	}
	if missing {
		return fmt.Errorf("event %s: missing subject id", e.Kind)
	}
	return nil
}
