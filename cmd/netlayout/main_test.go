package main

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/netlayout/pkg/observability"
)

func TestSummary(t *testing.T) {
	rec := observability.NewRecorder()
	ctx := context.Background()
	rec.OnStageComplete(ctx, "routed", 2*time.Millisecond)
	rec.OnStageComplete(ctx, "leveled", time.Millisecond)
	rec.OnStageComplete(ctx, "leveled", time.Millisecond)
	rec.OnCacheMiss(ctx, "layout")
	rec.OnCacheHit(ctx, "artifact")

	want := []any{
		"leveled", 2 * time.Millisecond,
		"routed", 2 * time.Millisecond,
		"artifact_hits", 1,
		"layout_misses", 1,
	}
	if got := summary(rec.Snapshot()); !slices.Equal(got, want) {
		t.Errorf("summary() = %v, want %v", got, want)
	}
}

func TestSummaryEmpty(t *testing.T) {
	if got := summary(observability.NewRecorder().Snapshot()); len(got) != 0 {
		t.Errorf("summary() = %v, want nothing", got)
	}
}
