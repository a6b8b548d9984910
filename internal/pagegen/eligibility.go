package pagegen

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/quizpages/internal/domain"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
)

// Reasons a Decision carries.
const (
	ReasonEligible        = "eligible"
	ReasonCategoryMissing = "category_missing"
	ReasonScopeMissing    = "scope_missing"
	ReasonScopeDisabled   = "scope_disabled"
	ReasonUncategorized   = "uncategorized"
	ReasonBelowMinimum    = "below_minimum"
	ReasonQuizMalformed   = "quiz_malformed"
	ReasonNoEligiblePairs = "no_eligible_pairs"
)

// NodeSource resolves classification nodes for eligibility.
type NodeSource interface {
	Category(ctx context.Context, id uuid.UUID) (*types.Category, error)
	Scope(ctx context.Context, id uuid.UUID) (*types.Scope, error)
	CategoriesInScope(ctx context.Context, scopeID uuid.UUID) ([]uuid.UUID, error)
}

type ScopeSet interface {
	IsEnabled(ctx context.Context, scopeID uuid.UUID) (bool, error)
}

// Pair is an eligible (scope, category) listed on a scope landing document.
type Pair struct {
	Category *types.Category
	Count    int
}

// Decision is the outcome of evaluating a key, with the nodes it resolved so content can
// be rendered without reloading them.
type Decision struct {
	Key      Key
	Eligible bool
	Reason   string
	Category *types.Category
	Scope    *types.Scope
	Snapshot Snapshot
	Pairs    []Pair
}

type Evaluator struct {
	cfg    Config
	nodes  NodeSource
	snaps  SnapshotSource
	scopes ScopeSet
}

func NewEvaluator(cfg Config, nodes NodeSource, snaps SnapshotSource, scopes ScopeSet) *Evaluator {
	return &Evaluator{cfg: cfg, nodes: nodes, snaps: snaps, scopes: scopes}
}

// Eligible decides whether a document should exist for key. Unresolvable nodes make a
// key ineligible; only infrastructure failures are returned as errors.
func (e *Evaluator) Eligible(ctx context.Context, key Key) (Decision, error) {
	switch k := key.(type) {
	case CategoryKey:
		return e.category(ctx, k)
	case ScopeCategoryKey:
		scope, d, err := e.enabledScope(ctx, k, k.ScopeID)
		if err != nil || scope == nil {
			return d, err
		}
		return e.scopeCategory(ctx, k, scope)
	case ScopeKey:
		return e.scope(ctx, k)
	}
	return Decision{Key: key}, fmt.Errorf("eligible: unknown key %v: %w", key, perrors.ErrInvalidArgument)
}

func (e *Evaluator) category(ctx context.Context, k CategoryKey) (Decision, error) {
	d := Decision{Key: k}
	cat, err := e.nodes.Category(ctx, k.CategoryID)
	if err != nil {
		return d, fmt.Errorf("resolve category %s: %w", k.CategoryID, err)
	}
	if cat == nil {
		d.Reason = ReasonCategoryMissing
		return d, nil
	}
	d.Category = cat
	snap, err := e.snaps.Snapshot(ctx, cat.ID, nil)
	if err != nil {
		return d, fmt.Errorf("snapshot %s: %w", k, err)
	}
	d.Snapshot = snap
	switch {
	case !snap.WellFormed:
		d.Reason = ReasonQuizMalformed
	case snap.Total < e.cfg.CategoryMinItems:
		d.Reason = ReasonBelowMinimum
	default:
		d.Eligible, d.Reason = true, ReasonEligible
	}
	return d, nil
}

// enabledScope resolves scopeID and checks it is enabled. A nil scope means the returned
// Decision is final.
func (e *Evaluator) enabledScope(ctx context.Context, k Key, scopeID uuid.UUID) (*types.Scope, Decision, error) {
	d := Decision{Key: k}
	scope, err := e.nodes.Scope(ctx, scopeID)
	if err != nil {
		return nil, d, fmt.Errorf("resolve scope %s: %w", scopeID, err)
	}
	if scope == nil {
		d.Reason = ReasonScopeMissing
		return nil, d, nil
	}
	d.Scope = scope
	enabled := false
	if e.scopes != nil {
		if enabled, err = e.scopes.IsEnabled(ctx, scopeID); err != nil {
			return nil, d, fmt.Errorf("scope enabled %s: %w", scopeID, err)
		}
	}
	if !enabled {
		d.Reason = ReasonScopeDisabled
		return nil, d, nil
	}
	return scope, d, nil
}

func (e *Evaluator) scopeCategory(ctx context.Context, k ScopeCategoryKey, scope *types.Scope) (Decision, error) {
	d := Decision{Key: k, Scope: scope}
	cat, err := e.nodes.Category(ctx, k.CategoryID)
	if err != nil {
		return d, fmt.Errorf("resolve category %s: %w", k.CategoryID, err)
	}
	if cat == nil {
		d.Reason = ReasonCategoryMissing
		return d, nil
	}
	d.Category = cat
	if e.cfg.UncategorizedSlug != "" && strings.EqualFold(cat.Slug, e.cfg.UncategorizedSlug) {
		d.Reason = ReasonUncategorized
		return d, nil
	}
	scopeID := scope.ID
	snap, err := e.snaps.Snapshot(ctx, cat.ID, &scopeID)
	if err != nil {
		return d, fmt.Errorf("snapshot %s: %w", k, err)
	}
	d.Snapshot = snap
	switch {
	case !snap.WellFormed:
		d.Reason = ReasonQuizMalformed
	case snap.Qualifying() < e.cfg.ScopeCategoryMin():
		d.Reason = ReasonBelowMinimum
	default:
		d.Eligible, d.Reason = true, ReasonEligible
	}
	return d, nil
}

func (e *Evaluator) scope(ctx context.Context, k ScopeKey) (Decision, error) {
	scope, d, err := e.enabledScope(ctx, k, k.ScopeID)
	if err != nil || scope == nil {
		return d, err
	}
	catIDs, err := e.nodes.CategoriesInScope(ctx, scope.ID)
	if err != nil {
		return d, fmt.Errorf("categories in scope %s: %w", scope.ID, err)
	}
	for _, catID := range catIDs {
		pd, err := e.scopeCategory(ctx, ScopeCategoryKey{ScopeID: scope.ID, CategoryID: catID}, scope)
		if err != nil {
			return d, err
		}
		if pd.Eligible {
			d.Pairs = append(d.Pairs, Pair{Category: pd.Category, Count: pd.Snapshot.Qualifying()})
		}
	}
	sort.Slice(d.Pairs, func(i, j int) bool {
		a, b := d.Pairs[i].Category, d.Pairs[j].Category
		if an, bn := strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName()); an != bn {
			return an < bn
		}
		return a.Slug < b.Slug
	})
	if len(d.Pairs) == 0 {
		d.Reason = ReasonNoEligiblePairs
		return d, nil
	}
	d.Eligible, d.Reason = true, ReasonEligible
	return d, nil
}
