package pagegen

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/quizpages/internal/domain"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

func TestParseKey(t *testing.T) {
	c, s := uuid.New(), uuid.New()
	for _, k := range []Key{
		CategoryKey{CategoryID: c},
		ScopeCategoryKey{ScopeID: s, CategoryID: c},
		ScopeKey{ScopeID: s},
	} {
		got, err := ParseKey(k.String())
		if err != nil {
			t.Fatalf("ParseKey(%q): %v", k, err)
		}
		if got != k {
			t.Fatalf("ParseKey(%q) = %v", k, got)
		}
		back, err := KeyFromAttrs(k.Attrs())
		if err != nil || back != k {
			t.Fatalf("KeyFromAttrs(%v) = %v, %v", k.Attrs(), back, err)
		}
	}

	for _, bad := range []string{
		"",
		"category",
		"category/not-a-uuid",
		"category/" + uuid.Nil.String(),
		"scope/" + s.String() + "/category",
		"scope/" + s.String() + "/tag/" + c.String(),
		"item/" + c.String(),
	} {
		if _, err := ParseKey(bad); !errors.Is(err, perrors.ErrInvalidArgument) {
			t.Fatalf("ParseKey(%q): expected ErrInvalidArgument, got %v", bad, err)
		}
	}
}

func TestKeyFromAttrsRejectsMixedShapes(t *testing.T) {
	c, s := uuid.New(), uuid.New()
	for _, a := range []types.KeyAttrs{
		{Kind: "category", CategoryID: &c, ScopeID: &s},
		{Kind: "scope", CategoryID: &c, ScopeID: &s},
		{Kind: "scope_category", CategoryID: &c},
		{Kind: "tag", CategoryID: &c},
		{},
	} {
		if k, err := KeyFromAttrs(a); err == nil {
			t.Fatalf("KeyFromAttrs(%+v) = %v, expected error", a, k)
		}
	}
}

func TestDedupeKeys(t *testing.T) {
	c := uuid.New()
	got := dedupeKeys([]Key{CategoryKey{CategoryID: c}, nil, ScopeKey{ScopeID: c}, CategoryKey{CategoryID: c}})
	if len(got) != 2 || got[0] != (CategoryKey{CategoryID: c}) {
		t.Fatalf("dedupeKeys = %v", got)
	}
}
