package pagegen

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/quizpages/internal/pkg/dbctx"
	"github.com/yungbote/quizpages/internal/pkg/logger"
)

const tracerName = "github.com/yungbote/quizpages/internal/pagegen"

// Reconciler converges the documents of one key on its eligibility decision.
type Reconciler struct {
	db     *gorm.DB
	cfg    Config
	eval   *Evaluator
	store  *Store
	tracer trace.Tracer
	log    *logger.Logger
}

func NewReconciler(db *gorm.DB, cfg Config, eval *Evaluator, store *Store, baseLog *logger.Logger) *Reconciler {
	return &Reconciler{
		db:     db,
		cfg:    cfg,
		eval:   eval,
		store:  store,
		tracer: otel.Tracer(tracerName),
		log:    baseLog.With("component", "Reconciler"),
	}
}

// Reconcile evaluates key and writes the result in one transaction. Failures are returned
// in the Outcome rather than aborting the caller's batch. A nil rc uses the one attached
// to ctx, or a private one.
func (r *Reconciler) Reconcile(ctx context.Context, rc *ReconciliationContext, key Key) Outcome {
	if rc == nil {
		rc = ReconciliationFrom(ctx)
	}
	if rc == nil {
		rc = NewReconciliationContext("direct", nil)
		defer rc.Close(ctx)
	}
	if !rc.TryEnter(key) {
		out := Outcome{Key: key, Action: ActionSkipped, Reason: "in_flight"}
		rc.Record(out)
		return out
	}
	defer rc.Leave(key)

	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "pagegen.reconcile", trace.WithAttributes(
		attribute.String("pagegen.key", key.String()),
		attribute.String("pagegen.kind", string(key.Kind())),
		attribute.String("pagegen.batch_id", rc.ID.String()),
	))
	defer span.End()

	out := r.reconcile(ctx, key)

	span.SetAttributes(attribute.String("pagegen.action", string(out.Action)))
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, out.Err.Error())
	}
	reconcileTotal.WithLabelValues(string(key.Kind()), string(out.Action)).Inc()
	reconcileDuration.WithLabelValues(string(key.Kind())).Observe(time.Since(start).Seconds())
	rc.Record(out)

	fields := []interface{}{
		"key", key.String(),
		"action", out.Action,
		"reason", out.Reason,
		"batch_id", rc.ID,
	}
	if out.DocumentID != 0 {
		fields = append(fields, "document_id", out.DocumentID)
	}
	switch out.Action {
	case ActionFailed:
		r.log.Error("Reconcile failed", append(fields, "error", out.Err)...)
	case ActionUnchanged:
		r.log.Debug("Reconciled", fields...)
	default:
		r.log.Info("Reconciled", append(fields, "retired", out.Retired, "purged", out.Purged)...)
	}
	return out
}

func (r *Reconciler) reconcile(ctx context.Context, key Key) Outcome {
	out := Outcome{Key: key}
	decision, err := r.eval.Eligible(ctx, key)
	if err != nil {
		out.Action, out.Err = ActionFailed, fmt.Errorf("evaluate %s: %w", key, err)
		return out
	}
	out.Reason = decision.Reason

	var target Target
	if decision.Eligible {
		if target, err = BuildTarget(r.cfg, decision); err != nil {
			out.Action, out.Err = ActionFailed, err
			return out
		}
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if !decision.Eligible {
			n, err := r.store.Retire(dbc, key)
			if err != nil {
				return err
			}
			out.Action, out.Retired = ActionUnchanged, n
			if n > 0 {
				out.Action = ActionRetired
			}
			return nil
		}
		res, err := r.store.Upsert(dbc, key, target)
		if err != nil {
			return err
		}
		out.Action, out.DocumentID, out.Retired, out.Purged = res.Action, res.DocumentID, res.Retired, res.Purged
		return nil
	})
	if err != nil {
		return Outcome{Key: key, Action: ActionFailed, Reason: decision.Reason, Err: err}
	}
	return out
}

// ReconcileAll reconciles keys in order, continuing past failures.
func (r *Reconciler) ReconcileAll(ctx context.Context, rc *ReconciliationContext, keys []Key) []Outcome {
	out := make([]Outcome, 0, len(keys))
	for _, k := range dedupeKeys(keys) {
		if err := ctx.Err(); err != nil {
			o := Outcome{Key: k, Action: ActionFailed, Err: err}
			if rc != nil {
				rc.Record(o)
			}
			out = append(out, o)
			continue
		}
		out = append(out, r.Reconcile(ctx, rc, k))
	}
	return out
}
