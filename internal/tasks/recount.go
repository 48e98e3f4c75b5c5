package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// RecomputeCategoryCountsQueue is the queue name of RecomputeCategoryCountsTask.
const RecomputeCategoryCountsQueue = "recompute_category_counts"

// CountRecomputer re-derives category song counts from the song list.
type CountRecomputer interface {
	RecomputeCategoryCounts(ctx context.Context) error
}

// RecomputeCategoryCountsTask refreshes every category's song count, for
// example after a bulk import replaced the songs.
type RecomputeCategoryCountsTask struct {
	Reason string `json:"reason,omitempty"`
}

func (t RecomputeCategoryCountsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        RecomputeCategoryCountsQueue,
		MaxAttempts: 3,
		Backoff:     10 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func RecomputeCategoryCountsProcessor(recomputer CountRecomputer) backlite.QueueProcessor[RecomputeCategoryCountsTask] {
	return func(ctx context.Context, task RecomputeCategoryCountsTask) error {
		if recomputer == nil {
			return fmt.Errorf("category count recomputer not configured")
		}
		if err := recomputer.RecomputeCategoryCounts(ctx); err != nil {
			return fmt.Errorf("recompute category counts: %w", err)
		}
		if task.Reason != "" {
			log.Printf("[TASK] Recomputed category counts (%s)", task.Reason)
		} else {
			log.Printf("[TASK] Recomputed category counts")
		}
		return nil
	}
}

func NewRecomputeCategoryCountsQueue(recomputer CountRecomputer) backlite.Queue {
	return backlite.NewQueue(RecomputeCategoryCountsProcessor(recomputer))
}
