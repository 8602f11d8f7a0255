package sweep

import (
	"context"
	"fmt"
	"sync"

	"av-maintenance-backend/internal/model"
)

// forEachFacility fans per-facility digest work out to a bounded set of
// workers. Digest jobs issue several queries per facility, so large fleets
// benefit from overlap; errors are collected and the first one is returned
// after every facility has been attempted.
func forEachFacility(ctx context.Context, facilities []model.Facility, workers int, fn func(ctx context.Context, f *model.Facility) error) error {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(facilities) {
		workers = len(facilities)
	}
	if workers == 0 {
		return nil
	}

	jobs := make(chan *model.Facility)
	errs := make(chan error, len(facilities))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				if err := fn(ctx, f); err != nil {
					errs <- fmt.Errorf("facility %d: %w", f.ID, err)
				}
			}
		}()
	}

	for i := range facilities {
		select {
		case <-ctx.Done():
			break
		case jobs <- &facilities[i]:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()
	close(errs)

	for err := range errs {
		return err
	}
	return ctx.Err()
}
