package pagegen

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/quizpages/internal/data/repos"
	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const versionEnabledScopes = "enabled_scopes"

// EnabledScopes is the durable list of scopes that get scope and (scope, category)
// documents. Reads are cached until the enabled_scopes version moves.
type EnabledScopes struct {
	settings repos.SettingRepo
	versions kv.Versions
	log      *logger.Logger

	mu      sync.Mutex
	loaded  bool
	version int64
	ids     []uuid.UUID
}

func NewEnabledScopes(settings repos.SettingRepo, versions kv.Versions, baseLog *logger.Logger) *EnabledScopes {
	return &EnabledScopes{settings: settings, versions: versions, log: baseLog.With("component", "EnabledScopes")}
}

func (e *EnabledScopes) List(ctx context.Context) ([]uuid.UUID, error) {
	v, err := e.versions.Current(ctx, versionEnabledScopes)
	if err != nil {
		e.log.Warn("Enabled scopes version unavailable; reading through", "error", err)
		return e.load(ctx)
	}
	e.mu.Lock()
	if e.loaded && e.version == v {
		out := append([]uuid.UUID(nil), e.ids...)
		e.mu.Unlock()
		return out, nil
	}
	e.mu.Unlock()

	ids, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.loaded, e.version, e.ids = true, v, ids
	e.mu.Unlock()
	return append([]uuid.UUID(nil), ids...), nil
}

func (e *EnabledScopes) load(ctx context.Context) ([]uuid.UUID, error) {
	var raw []string
	if _, err := e.settings.Get(dbcOf(ctx), types.SettingEnabledScopes, &raw); err != nil {
		return nil, fmt.Errorf("load enabled scopes: %w", err)
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil || id == uuid.Nil {
			e.log.Warn("Ignoring malformed enabled scope id", "value", s)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

func (e *EnabledScopes) IsEnabled(ctx context.Context, scopeID uuid.UUID) (bool, error) {
	ids, err := e.List(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == scopeID {
			return true, nil
		}
	}
	return false, nil
}

// Set persists ids (deduplicated, sorted) and bumps the version so every instance reloads.
func (e *EnabledScopes) Set(ctx context.Context, ids []uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	clean := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id.String())
	}
	sort.Strings(clean)
	if err := e.settings.Put(dbcOf(ctx), types.SettingEnabledScopes, clean); err != nil {
		return err
	}
	if _, err := e.versions.Bump(ctx, versionEnabledScopes); err != nil {
		e.log.Warn("Enabled scopes version bump failed", "error", err)
		e.mu.Lock()
		e.loaded = false
		e.mu.Unlock()
	}
	return nil
}
