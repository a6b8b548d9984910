package cli

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/quizpages/internal/domain"
	"github.com/yungbote/quizpages/internal/pagegen"
	perrors "github.com/yungbote/quizpages/internal/pkg/errors"
	"github.com/yungbote/quizpages/internal/seed"
)

type mockPages struct {
	resyncErr  error
	scopes     map[string]*types.Scope
	enabled    []*types.Scope
	setIDs     []uuid.UUID
	setCalled  bool
	holdTTL    time.Duration
	held       bool
	reconciled []pagegen.Key
}

func (m *mockPages) FullResync(context.Context) (pagegen.Summary, error) {
	if m.resyncErr != nil {
		return pagegen.Summary{}, m.resyncErr
	}
	return pagegen.Summary{Created: 4, Unchanged: 2}, nil
}

func (m *mockPages) Sweep(context.Context) (pagegen.Summary, error) {
	return pagegen.Summary{Retired: 1}, nil
}

func (m *mockPages) Reconcile(_ context.Context, key pagegen.Key) pagegen.Outcome {
	m.reconciled = append(m.reconciled, key)
	return pagegen.Outcome{Key: key, Action: pagegen.ActionCreated, Reason: "eligible"}
}

func (m *mockPages) ReconcileSlugs(ctx context.Context, scope, category string) (pagegen.Outcome, error) {
	key, err := m.KeyForSlugs(ctx, scope, category)
	if err != nil {
		return pagegen.Outcome{}, err
	}
	return m.Reconcile(ctx, key), nil
}

func (m *mockPages) KeyForSlugs(_ context.Context, scope, category string) (pagegen.Key, error) {
	s, ok := m.scopes[scope]
	if !ok || category != "" {
		return nil, fmt.Errorf("scope %q: %w", scope, perrors.ErrNotFound)
	}
	return pagegen.ScopeKey{ScopeID: s.ID}, nil
}

func (m *mockPages) EnabledScopes(context.Context) ([]*types.Scope, error) { return m.enabled, nil }

func (m *mockPages) SetEnabledScopes(_ context.Context, ids []uuid.UUID) (pagegen.Summary, error) {
	m.setCalled = true
	m.setIDs = ids
	return pagegen.Summary{Created: len(ids)}, nil
}

func (m *mockPages) HoldSync(_ context.Context, ttl time.Duration) error {
	m.held, m.holdTTL = true, ttl
	return nil
}

func (m *mockPages) ReleaseHold(context.Context) error {
	m.held = false
	return nil
}

func (m *mockPages) Status(context.Context) (pagegen.Status, error) {
	return pagegen.Status{ActiveDocuments: 5, SoftDeleted: 1, EnabledScopes: m.enabled}, nil
}

type mockSeeder struct{ calls int }

func (m *mockSeeder) Import(context.Context, *seed.Fixture) (seed.Result, error) {
	m.calls++
	return seed.Result{}, nil
}

func newMockPages() *mockPages {
	g1 := &types.Scope{ID: uuid.New(), Slug: "grade-1", Name: "Grade 1"}
	g2 := &types.Scope{ID: uuid.New(), Slug: "grade-2", Name: "Grade 2"}
	return &mockPages{
		scopes:  map[string]*types.Scope{"grade-1": g1, "grade-2": g2},
		enabled: []*types.Scope{g1},
	}
}

func setupTestServices(p Pages, s Seeder) func() {
	oldPages, oldSeed, oldBoot := pagesService, seedService, bootstrap
	pagesService, seedService, bootstrap = p, s, nil
	return func() {
		pagesService, seedService, bootstrap = oldPages, oldSeed, oldBoot
		outputJSON = false
		holdTTL = 0
		reconcileScope, reconcileCategory = "", ""
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSyncCmd_PrintsSummary(t *testing.T) {
	cleanup := setupTestServices(newMockPages(), nil)
	defer cleanup()

	out, err := run(t, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "created=4")
	assert.Contains(t, out, "unchanged=2")
}

func TestSyncCmd_Guards(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{pagegen.ErrResyncInProgress, "another full resync is running"},
		{pagegen.ErrSyncHeld, "sync is held"},
	}
	for _, tc := range cases {
		p := newMockPages()
		p.resyncErr = tc.err
		cleanup := setupTestServices(p, nil)
		_, err := run(t, "sync")
		cleanup()
		require.Error(t, err)
		assert.Contains(t, err.Error(), tc.want)
	}
}

func TestCommands_RequireServices(t *testing.T) {
	cleanup := setupTestServices(nil, nil)
	defer cleanup()

	_, err := run(t, "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page service not configured")

	_, err = run(t, "seed", "fixture.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed service not configured")
}

func TestReconcileCmd(t *testing.T) {
	p := newMockPages()
	cleanup := setupTestServices(p, nil)
	defer cleanup()

	cat := uuid.New()
	out, err := run(t, "reconcile", "category/"+cat.String())
	require.NoError(t, err)
	assert.Contains(t, out, "created (eligible)")

	_, err = run(t, "reconcile", "--scope", "grade-2")
	require.NoError(t, err)
	require.Len(t, p.reconciled, 2)
	assert.Equal(t, pagegen.ScopeKey{ScopeID: p.scopes["grade-2"].ID}, p.reconciled[1])

	_, err = run(t, "reconcile", "category/not-a-uuid")
	require.Error(t, err)
}

func TestScopesEnableCmd_AppendsNewScopes(t *testing.T) {
	p := newMockPages()
	cleanup := setupTestServices(p, nil)
	defer cleanup()

	_, err := run(t, "scopes", "enable", "grade-2", "grade-1")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.scopes["grade-1"].ID, p.scopes["grade-2"].ID}, p.setIDs)
}

func TestScopesDisableCmd(t *testing.T) {
	p := newMockPages()
	cleanup := setupTestServices(p, nil)
	defer cleanup()

	_, err := run(t, "scopes", "disable", "grade-1")
	require.NoError(t, err)
	assert.True(t, p.setCalled)
	assert.Empty(t, p.setIDs)

	_, err = run(t, "scopes", "disable", "grade-9")
	require.Error(t, err)
}

func TestHoldAndReleaseCmd(t *testing.T) {
	p := newMockPages()
	cleanup := setupTestServices(p, nil)
	defer cleanup()

	_, err := run(t, "hold", "--ttl", "90s")
	require.NoError(t, err)
	assert.True(t, p.held)
	assert.Equal(t, 90*time.Second, p.holdTTL)

	_, err = run(t, "release")
	require.NoError(t, err)
	assert.False(t, p.held)
}

func TestStatusCmd(t *testing.T) {
	cleanup := setupTestServices(newMockPages(), nil)
	defer cleanup()

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Last full sync:   never")
	assert.Contains(t, out, "Active documents: 5 (1 soft-deleted)")
	assert.Contains(t, out, "Enabled scopes:   1")
}

func TestSeedCmd_MissingFixture(t *testing.T) {
	s := &mockSeeder{}
	cleanup := setupTestServices(newMockPages(), s)
	defer cleanup()

	_, err := run(t, "seed", t.TempDir()+"/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load fixture")
	assert.Zero(t, s.calls)
}
