package pagegen

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/data/repos"
	"github.com/yungbote/quizpages/internal/platform/kv"
	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const markerSeedHold = "pagegen:seed:hold"

// Collector retires generated documents whose key no longer resolves or qualifies and
// collapses keys that have more than one active document.
type Collector struct {
	db      *gorm.DB
	cfg     Config
	docs    repos.DocumentRepo
	nodes   Classification
	eval    *Evaluator
	store   *Store
	rec     *Reconciler
	markers kv.Markers
	tracer  trace.Tracer
	log     *logger.Logger
}

func NewCollector(db *gorm.DB, cfg Config, docs repos.DocumentRepo, nodes Classification, eval *Evaluator, store *Store, rec *Reconciler, markers kv.Markers, baseLog *logger.Logger) *Collector {
	return &Collector{
		db:      db,
		cfg:     cfg,
		docs:    docs,
		nodes:   nodes,
		eval:    eval,
		store:   store,
		rec:     rec,
		markers: markers,
		tracer:  otel.Tracer(tracerName),
		log:     baseLog.With("component", "GarbageCollector"),
	}
}

// Sweep pages over every active generated document. It is refused while the seed hold is
// set and skipped when no categories exist yet, so an unseeded database never causes mass
// retirement.
func (g *Collector) Sweep(ctx context.Context, rc *ReconciliationContext) (int, error) {
	held, err := g.markers.Exists(ctx, markerSeedHold)
	if err != nil {
		return 0, fmt.Errorf("sweep: check hold: %w", err)
	}
	if held {
		return 0, ErrSyncHeld
	}
	n, err := g.nodes.CategoryCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep: count categories: %w", err)
	}
	if n == 0 {
		g.log.Warn("No categories found; skipping sweep")
		return 0, nil
	}

	if rc == nil {
		rc = NewReconciliationContext("sweep", nil)
		defer rc.Close(ctx)
	}
	ctx, span := g.tracer.Start(ctx, "pagegen.sweep", trace.WithAttributes(attribute.String("pagegen.batch_id", rc.ID.String())))
	defer span.End()

	var (
		dbc         = dbctx.Context{Ctx: ctx}
		after       uint64
		retired     int
		decided     = map[Key]bool{}
		retiredKeys = map[Key]bool{}
		counts      = map[Key]int{}
		order       []Key
	)
	for {
		page, err := g.docs.ListActiveGenerated(dbc, after, g.cfg.SweepPageSize)
		if err != nil {
			return retired, fmt.Errorf("sweep: list documents: %w", err)
		}
		for _, doc := range page {
			after = doc.ID
			key, err := KeyFromAttrs(doc.Attrs())
			if err != nil {
				n, derr := g.docs.SoftDelete(dbc, []uint64{doc.ID})
				if derr != nil {
					g.log.Error("Failed to retire orphan document", "document_id", doc.ID, "error", derr)
					continue
				}
				g.log.Warn("Retired orphan document", "document_id", doc.ID, "path", doc.Path, "reason", err)
				retired += int(n)
				rc.AddRetired(int(n))
				continue
			}
			if retiredKeys[key] {
				continue
			}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++

			eligible, seen := decided[key]
			if !seen {
				d, err := g.eval.Eligible(ctx, key)
				if err != nil {
					// Keep the document; an unreadable source is not evidence of ineligibility.
					g.log.Warn("Sweep could not evaluate key", "key", key.String(), "error", err)
					rc.Record(Outcome{Key: key, Action: ActionFailed, Err: err})
					decided[key] = true
					continue
				}
				eligible = d.Eligible
				decided[key] = eligible
			}
			if eligible {
				continue
			}
			var n int
			err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var rerr error
				n, rerr = g.store.Retire(dbctx.Context{Ctx: ctx, Tx: tx}, key)
				return rerr
			})
			if err != nil {
				g.log.Error("Sweep failed to retire key", "key", key.String(), "error", err)
				rc.Record(Outcome{Key: key, Action: ActionFailed, Err: err})
				continue
			}
			retiredKeys[key] = true
			retired += n
			rc.Record(Outcome{Key: key, Action: ActionRetired, Retired: n})
			g.log.Info("Sweep retired ineligible key", "key", key.String(), "retired", n)
		}
		if len(page) < g.cfg.SweepPageSize || len(page) == 0 {
			break
		}
	}

	for _, key := range order {
		if counts[key] < 2 || retiredKeys[key] {
			continue
		}
		out := g.rec.Reconcile(ctx, rc, key)
		retired += out.Retired
	}

	sweepRetired.Add(float64(retired))
	span.SetAttributes(attribute.Int("pagegen.retired", retired), attribute.Int("pagegen.keys", len(order)))
	g.log.Info("Sweep complete", "keys", len(order), "retired", retired, "batch_id", rc.ID)
	return retired, nil
}
