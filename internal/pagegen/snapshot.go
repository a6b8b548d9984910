package pagegen

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/domain/classification"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const (
	versionTaxonomy = "taxonomy"
	versionItems    = "items"
)

func scopeVersion(id uuid.UUID) string { return "scope:" + id.String() }

// Snapshot is the per-key input to eligibility: deepest-category item counts plus the
// quiz configuration they are judged against.
type Snapshot struct {
	Total        int            `json:"total"`
	ImageCapable int            `json:"image_capable"`
	AudioCapable int            `json:"audio_capable"`
	Spec         types.QuizSpec `json:"spec"`
	// Configured is false when no quiz configuration exists and the strict spec was assumed.
	Configured bool `json:"configured"`
	WellFormed bool `json:"well_formed"`
}

// Qualifying is the count that gates (scope, category) documents: image-capable items
// when the quiz needs an image, otherwise every item.
func (s Snapshot) Qualifying() int {
	if s.Spec.RequiresImage() {
		return s.ImageCapable
	}
	return s.Total
}

type SnapshotSource interface {
	Snapshot(ctx context.Context, categoryID uuid.UUID, scopeID *uuid.UUID) (Snapshot, error)
}

// SnapshotCache computes snapshots from classification state and caches them under the
// version stamps they depend on. Writers bump versions instead of deleting entries:
//
//	taxonomy     categories, scopes, quiz configs
//	items        item membership (category-only snapshots)
//	scope:<id>   item membership within one scope
type SnapshotCache struct {
	src      Classification
	rules    QuizRules
	versions kv.Versions
	size     int
	log      *logger.Logger

	mu      sync.Mutex
	entries map[string]Snapshot
	tree    *types.CategoryTree
	treeVer int64
	flight  singleflight.Group
}

func NewSnapshotCache(src Classification, rules QuizRules, versions kv.Versions, size int, baseLog *logger.Logger) *SnapshotCache {
	if size <= 0 {
		size = 4096
	}
	return &SnapshotCache{
		src:      src,
		rules:    rules,
		versions: versions,
		size:     size,
		log:      baseLog.With("component", "SnapshotCache"),
		entries:  map[string]Snapshot{},
		treeVer:  -1,
	}
}

func (c *SnapshotCache) stamp(ctx context.Context, scopeID *uuid.UUID) (string, error) {
	tv, err := c.versions.Current(ctx, versionTaxonomy)
	if err != nil {
		return "", err
	}
	name := versionItems
	if scopeID != nil {
		name = scopeVersion(*scopeID)
	}
	mv, err := c.versions.Current(ctx, name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("t%d|m%d", tv, mv), nil
}

func (c *SnapshotCache) Snapshot(ctx context.Context, categoryID uuid.UUID, scopeID *uuid.UUID) (Snapshot, error) {
	stamp, err := c.stamp(ctx, scopeID)
	if err != nil {
		c.log.Warn("Snapshot versions unavailable; computing uncached", "category_id", categoryID, "error", err)
		snapshotLookups.WithLabelValues("bypass").Inc()
		return c.compute(ctx, categoryID, scopeID)
	}
	scope := "-"
	if scopeID != nil {
		scope = scopeID.String()
	}
	key := categoryID.String() + "|" + scope + "|" + stamp

	c.mu.Lock()
	if snap, ok := c.entries[key]; ok {
		c.mu.Unlock()
		snapshotLookups.WithLabelValues("hit").Inc()
		return snap, nil
	}
	c.mu.Unlock()

	v, err, shared := c.flight.Do(key, func() (interface{}, error) {
		snap, err := c.compute(ctx, categoryID, scopeID)
		if err != nil {
			return Snapshot{}, err
		}
		c.mu.Lock()
		if len(c.entries) >= c.size {
			c.entries = make(map[string]Snapshot, c.size)
		}
		c.entries[key] = snap
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		snapshotLookups.WithLabelValues("shared").Inc()
	} else {
		snapshotLookups.WithLabelValues("miss").Inc()
	}
	return v.(Snapshot), nil
}

func (c *SnapshotCache) compute(ctx context.Context, categoryID uuid.UUID, scopeID *uuid.UUID) (Snapshot, error) {
	tree, err := c.Tree(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load category tree: %w", err)
	}
	items, err := c.src.ItemsInCategory(ctx, categoryID, scopeID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load items: %w", err)
	}
	var snap Snapshot
	for _, it := range items {
		if !tree.IsDeepestFor(categoryID, it.CategoryIDs) {
			continue
		}
		snap.Total++
		if it.ImageCapable {
			snap.ImageCapable++
		}
		if it.AudioCapable {
			snap.AudioCapable++
		}
	}

	snap.Spec = classification.StrictQuizSpec()
	if c.rules != nil {
		spec, ok, err := c.rules.QuizSpec(ctx, categoryID)
		if err != nil {
			return Snapshot{}, fmt.Errorf("load quiz rules: %w", err)
		}
		if ok {
			snap.Spec, snap.Configured = spec, true
		}
	}
	snap.WellFormed = snap.Spec.WellFormed()
	return snap, nil
}

// Tree returns the live category tree, reloaded when the taxonomy version moves.
func (c *SnapshotCache) Tree(ctx context.Context) (*types.CategoryTree, error) {
	tv, verr := c.versions.Current(ctx, versionTaxonomy)
	if verr == nil {
		c.mu.Lock()
		if c.tree != nil && c.treeVer == tv {
			t := c.tree
			c.mu.Unlock()
			return t, nil
		}
		c.mu.Unlock()
	}
	tree, err := c.src.Tree(ctx)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		c.mu.Lock()
		c.tree, c.treeVer = tree, tv
		c.mu.Unlock()
	}
	return tree, nil
}

// InvalidateTaxonomy invalidates every snapshot and the cached tree.
func (c *SnapshotCache) InvalidateTaxonomy(ctx context.Context) error {
	_, err := c.versions.Bump(ctx, versionTaxonomy)
	return err
}

// InvalidateItems invalidates category-only snapshots and those of the given scopes.
func (c *SnapshotCache) InvalidateItems(ctx context.Context, scopeIDs ...uuid.UUID) error {
	if _, err := c.versions.Bump(ctx, versionItems); err != nil {
		return err
	}
	for _, id := range scopeIDs {
		if _, err := c.versions.Bump(ctx, scopeVersion(id)); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateScope invalidates snapshots restricted to one scope.
func (c *SnapshotCache) InvalidateScope(ctx context.Context, scopeID uuid.UUID) error {
	_, err := c.versions.Bump(ctx, scopeVersion(scopeID))
	return err
}
