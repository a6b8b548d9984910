package pagegen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/quizpages/internal/domain"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

type Kind string

const (
	KindCategory      Kind = "category"
	KindScopeCategory Kind = "scope_category"
	KindScope         Kind = "scope"
)

// Key identifies what a generated document represents. Implementations are comparable
// values, so keys can be used directly as map keys.
type Key interface {
	Kind() Kind
	String() string
	Attrs() types.KeyAttrs
	isKey()
}

type CategoryKey struct {
	CategoryID uuid.UUID
}

type ScopeCategoryKey struct {
	ScopeID    uuid.UUID
	CategoryID uuid.UUID
}

type ScopeKey struct {
	ScopeID uuid.UUID
}

func (CategoryKey) Kind() Kind      { return KindCategory }
func (ScopeCategoryKey) Kind() Kind { return KindScopeCategory }
func (ScopeKey) Kind() Kind         { return KindScope }

func (CategoryKey) isKey()      {}
func (ScopeCategoryKey) isKey() {}
func (ScopeKey) isKey()         {}

func (k CategoryKey) String() string { return "category/" + k.CategoryID.String() }
func (k ScopeCategoryKey) String() string {
	return "scope/" + k.ScopeID.String() + "/category/" + k.CategoryID.String()
}
func (k ScopeKey) String() string { return "scope/" + k.ScopeID.String() }

func (k CategoryKey) Attrs() types.KeyAttrs {
	c := k.CategoryID
	return types.KeyAttrs{Kind: string(KindCategory), CategoryID: &c}
}

func (k ScopeCategoryKey) Attrs() types.KeyAttrs {
	c, s := k.CategoryID, k.ScopeID
	return types.KeyAttrs{Kind: string(KindScopeCategory), CategoryID: &c, ScopeID: &s}
}

func (k ScopeKey) Attrs() types.KeyAttrs {
	s := k.ScopeID
	return types.KeyAttrs{Kind: string(KindScope), ScopeID: &s}
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "/"), "/")
	bad := fmt.Errorf("parse key %q: %w", s, perrors.ErrInvalidArgument)
	parse := func(v string) (uuid.UUID, bool) {
		id, err := uuid.Parse(v)
		return id, err == nil && id != uuid.Nil
	}
	switch {
	case len(parts) == 2 && parts[0] == "category":
		c, ok := parse(parts[1])
		if !ok {
			return nil, bad
		}
		return CategoryKey{CategoryID: c}, nil
	case len(parts) == 2 && parts[0] == "scope":
		sc, ok := parse(parts[1])
		if !ok {
			return nil, bad
		}
		return ScopeKey{ScopeID: sc}, nil
	case len(parts) == 4 && parts[0] == "scope" && parts[2] == "category":
		sc, ok1 := parse(parts[1])
		c, ok2 := parse(parts[3])
		if !ok1 || !ok2 {
			return nil, bad
		}
		return ScopeCategoryKey{ScopeID: sc, CategoryID: c}, nil
	}
	return nil, bad
}

// KeyFromAttrs decodes the persisted attribute columns. Attribute sets that do not match
// exactly one key shape are rejected.
func KeyFromAttrs(a types.KeyAttrs) (Key, error) {
	has := func(id *uuid.UUID) bool { return id != nil && *id != uuid.Nil }
	switch Kind(a.Kind) {
	case KindCategory:
		if has(a.CategoryID) && a.ScopeID == nil {
			return CategoryKey{CategoryID: *a.CategoryID}, nil
		}
	case KindScopeCategory:
		if has(a.CategoryID) && has(a.ScopeID) {
			return ScopeCategoryKey{ScopeID: *a.ScopeID, CategoryID: *a.CategoryID}, nil
		}
	case KindScope:
		if has(a.ScopeID) && a.CategoryID == nil {
			return ScopeKey{ScopeID: *a.ScopeID}, nil
		}
	}
	return nil, fmt.Errorf("decode key attrs kind=%q: %w", a.Kind, perrors.ErrInvalidArgument)
}

// dedupeKeys drops repeats, keeping first-seen order.
func dedupeKeys(keys []Key) []Key {
	seen := make(map[Key]bool, len(keys))
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		if k == nil || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
