package publishers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Adda-Baaj/khobor-search/internal/logger"
)

// Fanout delivers each event to every publisher concurrently.
type Fanout struct {
	publishers []Publisher
	log        logger.Logger
}

// NewFanout drops nil publishers. A nil or empty Fanout publishes nothing.
func NewFanout(pubs []Publisher, log logger.Logger) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			cp = append(cp, p)
		}
	}
	return &Fanout{publishers: cp, log: logger.Ensure(log)}
}

// Publish returns the number of publishers that accepted evt and the joined failures of the rest.
func (f *Fanout) Publish(ctx context.Context, evt SearchEvent) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, nil
	}

	errs := make([]error, len(f.publishers))
	var wg sync.WaitGroup
	for i, p := range f.publishers {
		wg.Add(1)
		go func(i int, p Publisher) {
			defer wg.Done()
			if err := p.Publish(ctx, evt); err != nil {
				errs[i] = fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err)
			}
		}(i, p)
	}
	wg.Wait()

	delivered := 0
	for _, err := range errs {
		if err == nil {
			delivered++
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		f.log.WarnObj("search event not delivered to every publisher", "publish_result", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
			"total":     len(f.publishers),
			"error":     err.Error(),
		})
	} else {
		f.log.DebugObj("search event delivered", "publish_result", map[string]any{
			"event_id":  evt.ID,
			"delivered": delivered,
		})
	}
	return delivered, err
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

// Close releases publishers that hold client connections.
func (f *Fanout) Close() error {
	if f == nil {
		return nil
	}
	var errs []error
	for _, p := range f.publishers {
		if c, ok := p.(closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close publisher %s: %w", p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
