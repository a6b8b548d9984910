package pagegen

import (
	"fmt"

	"github.com/yungbote/quizpages/internal/data/repos"
	pagerepo "github.com/yungbote/quizpages/internal/data/repos/pages"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

type ContainerEnsurer interface {
	EnsureContainer(dbc dbctx.Context, path string) (*types.ManagedDocument, error)
}

// UpsertResult reports what Upsert did to a key's documents.
type UpsertResult struct {
	Action     Action
	DocumentID uint64
	Retired    int
	Purged     int
}

// Store is the key-addressed view over managed documents.
type Store struct {
	docs       repos.DocumentRepo
	containers ContainerEnsurer
	log        *logger.Logger
}

func NewStore(docs repos.DocumentRepo, containers ContainerEnsurer, baseLog *logger.Logger) *Store {
	return &Store{docs: docs, containers: containers, log: baseLog.With("component", "KeyedDocumentStore")}
}

// FindActive returns the lowest-id active document for key and any other active ones,
// which are duplicates awaiting collapse.
func (s *Store) FindActive(dbc dbctx.Context, key Key) (*types.ManagedDocument, []*types.ManagedDocument, error) {
	rows, err := s.docs.ListByKey(dbc, key.Attrs(), pagerepo.FilterActive)
	if err != nil {
		return nil, nil, fmt.Errorf("find active %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

// FindSoftDeleted returns key's soft-deleted documents, lowest id first.
func (s *Store) FindSoftDeleted(dbc dbctx.Context, key Key) ([]*types.ManagedDocument, error) {
	rows, err := s.docs.ListByKey(dbc, key.Attrs(), pagerepo.FilterSoftDeleted)
	if err != nil {
		return nil, fmt.Errorf("find soft deleted %s: %w", key, err)
	}
	return rows, nil
}

// Retire soft-deletes every active document for key.
func (s *Store) Retire(dbc dbctx.Context, key Key) (int, error) {
	active, dups, err := s.FindActive(dbc, key)
	if err != nil || active == nil {
		return 0, err
	}
	n, err := s.docs.SoftDelete(dbc, ids(append([]*types.ManagedDocument{active}, dups...)))
	if err != nil {
		return 0, fmt.Errorf("retire %s: %w", key, err)
	}
	return int(n), nil
}

// Upsert converges key's documents on t:
//   - an active document is updated in place where stale; other active documents are
//     retired and then purged in the same transaction, so each collapsed duplicate counts
//     in both Retired and Purged; every soft-deleted document is purged
//   - otherwise the lowest-id soft-deleted document is restored and the rest purged
//   - otherwise a document is created
func (s *Store) Upsert(dbc dbctx.Context, key Key, t Target) (UpsertResult, error) {
	parent, err := s.containers.EnsureContainer(dbc, t.ParentPath)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("ensure container %q: %w", t.ParentPath, err)
	}
	var (
		parentID   *uint64
		parentPath string
	)
	if parent != nil {
		id := parent.ID
		parentID, parentPath = &id, parent.Path
	}

	active, dups, err := s.FindActive(dbc, key)
	if err != nil {
		return UpsertResult{}, err
	}
	soft, err := s.FindSoftDeleted(dbc, key)
	if err != nil {
		return UpsertResult{}, err
	}

	if active != nil {
		return s.update(dbc, key, t, active, dups, soft, parentID, parentPath)
	}
	if len(soft) > 0 {
		return s.restore(dbc, key, t, soft, parentID, parentPath)
	}
	return s.create(dbc, key, t, parentID, parentPath)
}

func (s *Store) update(dbc dbctx.Context, key Key, t Target, active *types.ManagedDocument, dups, soft []*types.ManagedDocument, parentID *uint64, parentPath string) (UpsertResult, error) {
	res := UpsertResult{Action: ActionUnchanged, DocumentID: active.ID}

	// Collapse first so slugs held by duplicates are free for the survivor.
	if len(dups) > 0 {
		n, err := s.docs.SoftDelete(dbc, ids(dups))
		if err != nil {
			return res, fmt.Errorf("retire duplicates of %s: %w", key, err)
		}
		res.Retired = int(n)
		s.log.Warn("Collapsed duplicate active documents", "key", key.String(), "kept", active.ID, "retired", ids(dups))
	}
	if purge := append(ids(dups), ids(soft)...); len(purge) > 0 {
		n, err := s.docs.Purge(dbc, purge)
		if err != nil {
			return res, fmt.Errorf("purge leftovers of %s: %w", key, err)
		}
		res.Purged = int(n)
	}

	fields := map[string]interface{}{}
	slug := active.Slug
	if !active.SameParent(parentID) || active.Slug != t.Slug {
		resolved, err := s.docs.UniqueSlug(dbc, parentID, t.Slug, active.ID)
		if err != nil {
			return res, err
		}
		slug = resolved
	}
	if slug != active.Slug {
		fields["slug"] = slug
	}
	if !active.SameParent(parentID) {
		fields["parent_id"] = parentID
	}
	if p := joinPath(parentPath, slug); p != active.Path {
		fields["path"] = p
	}
	if active.Title != t.Title {
		fields["title"] = t.Title
	}
	if hash := t.ContentHash(); active.ContentHash != hash || active.Content != t.Content {
		fields["content"] = t.Content
		fields["content_hash"] = hash
	}
	if len(fields) == 0 {
		return res, nil
	}
	if err := s.docs.UpdateFields(dbc, active.ID, fields); err != nil {
		return res, err
	}
	res.Action = ActionUpdated
	return res, nil
}

func (s *Store) restore(dbc dbctx.Context, key Key, t Target, soft []*types.ManagedDocument, parentID *uint64, parentPath string) (UpsertResult, error) {
	keep := soft[0]
	res := UpsertResult{Action: ActionRestored, DocumentID: keep.ID}
	if rest := ids(soft[1:]); len(rest) > 0 {
		n, err := s.docs.Purge(dbc, rest)
		if err != nil {
			return res, fmt.Errorf("purge leftovers of %s: %w", key, err)
		}
		res.Purged = int(n)
	}
	slug, err := s.docs.UniqueSlug(dbc, parentID, t.Slug, keep.ID)
	if err != nil {
		return res, err
	}
	attrs := key.Attrs()
	err = s.docs.Restore(dbc, keep.ID, map[string]interface{}{
		"key_kind":        attrs.Kind,
		"key_category_id": attrs.CategoryID,
		"key_scope_id":    attrs.ScopeID,
		"parent_id":       parentID,
		"slug":            slug,
		"path":            joinPath(parentPath, slug),
		"title":           t.Title,
		"content":         t.Content,
		"content_hash":    t.ContentHash(),
		"metadata":        t.Metadata,
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

func (s *Store) create(dbc dbctx.Context, key Key, t Target, parentID *uint64, parentPath string) (UpsertResult, error) {
	slug, err := s.docs.UniqueSlug(dbc, parentID, t.Slug, 0)
	if err != nil {
		return UpsertResult{}, err
	}
	attrs := key.Attrs()
	doc := &types.ManagedDocument{
		Role:          types.RoleGenerated,
		KeyKind:       attrs.Kind,
		KeyCategoryID: attrs.CategoryID,
		KeyScopeID:    attrs.ScopeID,
		ParentID:      parentID,
		Slug:          slug,
		Path:          joinPath(parentPath, slug),
		Title:         t.Title,
		Content:       t.Content,
		ContentHash:   t.ContentHash(),
		Metadata:      t.Metadata,
	}
	if err := s.docs.Create(dbc, doc); err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Action: ActionCreated, DocumentID: doc.ID}, nil
}

func joinPath(parentPath, slug string) string {
	if parentPath == "" || parentPath == "/" {
		return "/" + slug
	}
	return parentPath + "/" + slug
}

func ids(docs []*types.ManagedDocument) []uint64 {
	out := make([]uint64, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
