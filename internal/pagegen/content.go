package pagegen

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/datatypes"

	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

// Target is the desired state of a key's document.
type Target struct {
	Title      string
	Content    string
	Slug       string
	ParentPath string
	Metadata   datatypes.JSON
}

// ContentHash is the stored fingerprint used to detect stale content.
func (t Target) ContentHash() string { return HashContent(t.Content) }

func HashContent(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Slugify lowercases s, strips diacritics and collapses anything that is not a letter or
// digit into single hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func slugOr(s, fallback string) string {
	if v := Slugify(s); v != "" {
		return v
	}
	return fallback
}

// BuildTarget renders the document an eligible decision calls for.
func BuildTarget(cfg Config, d Decision) (Target, error) {
	meta, _ := json.Marshal(map[string]string{"key": d.Key.String(), "kind": string(d.Key.Kind())})
	switch d.Key.(type) {
	case CategoryKey:
		if d.Category == nil {
			break
		}
		c := d.Category
		return Target{
			Title:      c.DisplayName(),
			Slug:       slugOr(c.Slug, "category-"+c.ID.String()[:8]),
			ParentPath: cfg.CategoryParentPath,
			Content: quizBlock(c.DisplayName(), map[string]string{
				"category": c.Slug,
				"prompt":   d.Snapshot.Spec.PromptType,
				"answer":   d.Snapshot.Spec.AnswerType,
			}),
			Metadata: meta,
		}, nil
	case ScopeCategoryKey:
		if d.Category == nil || d.Scope == nil {
			break
		}
		c, s := d.Category, d.Scope
		return Target{
			Title:      s.DisplayName() + ": " + c.DisplayName(),
			Slug:       slugOr(s.Slug+"-"+c.Slug, "pair-"+s.ID.String()[:8]+"-"+c.ID.String()[:8]),
			ParentPath: cfg.ScopeCategoryParentPath,
			Content: quizBlock(c.DisplayName(), map[string]string{
				"scope":    s.Slug,
				"category": c.Slug,
				"prompt":   d.Snapshot.Spec.PromptType,
				"answer":   d.Snapshot.Spec.AnswerType,
			}),
			Metadata: meta,
		}, nil
	case ScopeKey:
		if d.Scope == nil {
			break
		}
		s := d.Scope
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n\n", s.DisplayName())
		for _, p := range d.Pairs {
			fmt.Fprintf(&b, "- [%s](/%s/%s)\n", p.Category.DisplayName(), s.Slug, p.Category.Slug)
		}
		return Target{
			Title:      s.DisplayName(),
			Slug:       slugOr(s.Slug, "scope-"+s.ID.String()[:8]),
			ParentPath: cfg.ScopeParentPath,
			Content:    b.String(),
			Metadata:   meta,
		}, nil
	}
	return Target{}, fmt.Errorf("build target for %v: unresolved nodes: %w", d.Key, perrors.ErrInvalidArgument)
}

// quizBlock renders a heading plus the quiz shortcode the front end expands. Attributes
// are written in a fixed order so identical input yields identical content.
func quizBlock(title string, attrs map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n[quiz", title)
	for _, k := range []string{"scope", "category", "prompt", "answer"} {
		if v, ok := attrs[k]; ok && v != "" {
			fmt.Fprintf(&b, " %s=%q", k, v)
		}
	}
	b.WriteString("]\n")
	return b.String()
}
