package pagegen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/quizpages/internal/data/repos"
	pagerepo "github.com/yungbote/quizpages/internal/data/repos/pages"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const (
	markerRouteFlush = "pagegen:routes:stale"
	versionRoutes    = "routes"
)

// RouteTable maps enabled scope slugs to scopes. Generation is the routes version it was
// compiled at.
type RouteTable struct {
	Generation int64
	Scopes     map[string]uuid.UUID
}

// Patterns lists the registered patterns in a stable order.
func (t *RouteTable) Patterns() []string {
	out := make([]string, 0, 2*len(t.Scopes))
	for slug := range t.Scopes {
		out = append(out, "/"+slug, "/"+slug+"/{category}")
	}
	sort.Strings(out)
	return out
}

type ScopeLister interface {
	List(ctx context.Context) ([]uuid.UUID, error)
}

// Registrar owns the container documents generated pages hang under and the route table
// for scope-addressed pages.
type Registrar struct {
	docs     repos.DocumentRepo
	nodes    Classification
	scopes   ScopeLister
	markers  kv.Markers
	versions kv.Versions
	cfg      Config
	log      *logger.Logger

	mu    sync.Mutex
	table *RouteTable
}

func NewRegistrar(cfg Config, docs repos.DocumentRepo, nodes Classification, scopes ScopeLister, store kv.Store, baseLog *logger.Logger) *Registrar {
	return &Registrar{
		docs:     docs,
		nodes:    nodes,
		scopes:   scopes,
		markers:  store,
		versions: store,
		cfg:      cfg,
		log:      baseLog.With("component", "NamespaceRegistrar"),
	}
}

// EnsureContainer returns the active container at path, creating missing segments. A
// soft-deleted container is restored (lowest id) in preference to creating a second one.
// The root path has no container and yields nil.
func (r *Registrar) EnsureContainer(dbc dbctx.Context, path string) (*types.ManagedDocument, error) {
	p := cleanPath(path)
	if p == "/" {
		return nil, nil
	}
	var (
		parent *types.ManagedDocument
		cur    string
	)
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		cur += "/" + seg
		var parentID *uint64
		if parent != nil {
			id := parent.ID
			parentID = &id
		}

		active, err := r.docs.ListContainers(dbc, parentID, seg, pagerepo.FilterActive)
		if err != nil {
			return nil, err
		}
		if len(active) > 0 {
			parent = active[0]
			continue
		}

		deleted, err := r.docs.ListContainers(dbc, parentID, seg, pagerepo.FilterSoftDeleted)
		if err != nil {
			return nil, err
		}
		if len(deleted) > 0 {
			keep := deleted[0]
			if err := r.docs.Restore(dbc, keep.ID, map[string]interface{}{"path": cur}); err != nil {
				return nil, err
			}
			extra := make([]uint64, 0, len(deleted)-1)
			for _, d := range deleted[1:] {
				extra = append(extra, d.ID)
			}
			if _, err := r.docs.Purge(dbc, extra); err != nil {
				return nil, err
			}
			r.log.Info("Restored container", "path", cur, "document_id", keep.ID, "purged", len(extra))
			keep.Path = cur
			keep.DeletedAt.Valid = false
			parent = keep
			continue
		}

		doc := &types.ManagedDocument{
			Role:     types.RoleContainer,
			ParentID: parentID,
			Slug:     seg,
			Path:     cur,
			Title:    containerTitle(seg),
		}
		if err := r.docs.Create(dbc, doc); err != nil {
			return nil, err
		}
		r.log.Info("Created container", "path", cur, "document_id", doc.ID)
		parent = doc
	}
	return parent, nil
}

func containerTitle(seg string) string {
	words := strings.FieldsFunc(seg, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Routes returns the compiled route table, recompiling when the routes version moved.
func (r *Registrar) Routes(ctx context.Context) (*RouteTable, error) {
	gen, err := r.versions.Current(ctx, versionRoutes)
	if err != nil {
		r.log.Warn("Route generation unavailable; recompiling", "error", err)
		gen = -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table != nil && gen >= 0 && r.table.Generation == gen {
		return r.table, nil
	}

	ids, err := r.scopes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile routes: %w", err)
	}
	table := &RouteTable{Generation: gen, Scopes: make(map[string]uuid.UUID, len(ids))}
	for _, id := range ids {
		s, err := r.nodes.Scope(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("compile routes: %w", err)
		}
		if s == nil {
			continue
		}
		table.Scopes[s.Slug] = s.ID
	}
	r.table = table
	r.log.Debug("Compiled route table", "generation", gen, "scopes", len(table.Scopes))
	return table, nil
}

// MarkStale flags the route table for recompilation at the next Flush.
func (r *Registrar) MarkStale(ctx context.Context) error {
	return r.markers.Set(ctx, markerRouteFlush, r.cfg.RouteFlushTTL)
}

// Flush publishes a new route generation if the table was marked stale. It reports
// whether a flush happened.
func (r *Registrar) Flush(ctx context.Context) (bool, error) {
	stale, err := r.markers.Exists(ctx, markerRouteFlush)
	if err != nil || !stale {
		return false, err
	}
	gen, err := r.versions.Bump(ctx, versionRoutes)
	if err != nil {
		return false, err
	}
	if err := r.markers.Delete(ctx, markerRouteFlush); err != nil {
		return true, err
	}
	routeFlushes.Inc()
	r.log.Info("Flushed route table", "generation", gen)
	return true, nil
}

// Resolve maps a request path to the document to render.
func (r *Registrar) Resolve(ctx context.Context, path string) (*types.ManagedDocument, error) {
	p := cleanPath(path)
	dbc := dbctx.Context{Ctx: ctx}
	table, err := r.Routes(ctx)
	if err != nil {
		return nil, err
	}

	segs := strings.Split(strings.Trim(p, "/"), "/")
	if scopeID, ok := table.Scopes[segs[0]]; ok {
		var key Key
		switch len(segs) {
		case 1:
			key = ScopeKey{ScopeID: scopeID}
		case 2:
			cat, err := r.nodes.CategoryBySlug(ctx, segs[1])
			if err != nil {
				return nil, err
			}
			if cat != nil {
				key = ScopeCategoryKey{ScopeID: scopeID, CategoryID: cat.ID}
			}
		}
		if key != nil {
			docs, err := r.docs.ListByKey(dbc, key.Attrs(), pagerepo.FilterActive)
			if err != nil {
				return nil, err
			}
			if len(docs) > 0 {
				return docs[0], nil
			}
		}
	}

	doc, err := r.docs.GetActiveByPath(dbc, p)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("resolve %q: %w", p, perrors.ErrNotFound)
	}
	return doc, nil
}
