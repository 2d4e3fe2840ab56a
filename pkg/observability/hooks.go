package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/charsheet/pkg/domain"
)

// Compose returns hooks that call every non-nil callback of each set, in order.
func Compose(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks

	var syncs []func(context.Context, *domain.SyncEvent)
	var applied, rejected []func(context.Context, *domain.ChangeEvent)
	for _, s := range sets {
		if s.OnSynchronize != nil {
			syncs = append(syncs, s.OnSynchronize)
		}
		if s.OnChangeApplied != nil {
			applied = append(applied, s.OnChangeApplied)
		}
		if s.OnChangeRejected != nil {
			rejected = append(rejected, s.OnChangeRejected)
		}
	}

	if len(syncs) > 0 {
		out.OnSynchronize = func(ctx context.Context, e *domain.SyncEvent) {
			for _, fn := range syncs {
				fn(ctx, e)
			}
		}
	}
	if len(applied) > 0 {
		out.OnChangeApplied = fanOut(applied)
	}
	if len(rejected) > 0 {
		out.OnChangeRejected = fanOut(rejected)
	}
	return out
}

func fanOut(fns []func(context.Context, *domain.ChangeEvent)) func(context.Context, *domain.ChangeEvent) {
	return func(ctx context.Context, e *domain.ChangeEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

// DebugHooks logs lifecycle events at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSynchronize: func(ctx context.Context, e *domain.SyncEvent) {
			logger.DebugContext(ctx, "Synchronize", "sheet", e.SheetKey, "binders", e.Binders, "changed", !e.Diff.IsEmpty())
		},
		OnChangeApplied: func(ctx context.Context, e *domain.ChangeEvent) {
			logger.DebugContext(ctx, "Change Applied", "sheet", e.SheetKey, "type", e.Change.Type, "property", e.Change.Property)
		},
		OnChangeRejected: func(ctx context.Context, e *domain.ChangeEvent) {
			logger.DebugContext(ctx, "Change Rejected", "sheet", e.SheetKey, "type", e.Change.Type, "err", e.Err)
		},
	}
}
