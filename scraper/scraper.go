// Package scraper pulls unseen events from one upstream source in bounded
// pages and applies them to the state.
//
// A cycle reads the upstream count, records the last observed index and then
// walks [last_scraped, last_observed] in pages. Each page is reduced,
// applied and followed by a cursor advance in a single state mutation, so a
// failure mid-page replays the whole page next time. A page that keeps
// failing aborts the cycle without touching later pages.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/metrics"
	"github.com/TEENet-io/bridge-mirror/notify"
	"github.com/TEENet-io/bridge-mirror/reducer"
	"github.com/TEENet-io/bridge-mirror/state"
	logger "github.com/sirupsen/logrus"
)

const (
	DefaultPageSize    = 100
	DefaultMaxAttempts = 5
	MinInterval        = 100 * time.Millisecond
)

var ErrRetriesExhausted = errors.New("retries exhausted")

type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: DefaultMaxAttempts}
}

type Config struct {
	Source   state.SourceKey
	PageSize uint64
	Retry    RetryConfig
	Interval time.Duration
}

// Result describes one cycle. Applied covers [From, To] when Chunks > 0.
type Result struct {
	Idle         bool
	LastObserved uint64
	From, To     uint64
	Chunks       int
	Events       int
}

type Scraper struct {
	cfg       Config
	upstream  agreement.EventLog
	st        *state.State
	locker    guard.Locker
	publisher notify.Publisher
}

func New(cfg Config, upstream agreement.EventLog, st *state.State, locker guard.Locker, publisher notify.Publisher) *Scraper {
	if cfg.PageSize == 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Interval < MinInterval {
		cfg.Interval = MinInterval
	}
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &Scraper{cfg: cfg, upstream: upstream, st: st, locker: locker, publisher: publisher}
}

// Tag is the guard tag of this scraper's cycles.
func (s *Scraper) Tag() string {
	return "scrape:" + s.cfg.Source.String()
}

func (s *Scraper) labels() []string {
	return []string{s.cfg.Source.ChainId.Name(), string(s.cfg.Source.Operator)}
}

// ScrapeOnce runs one cycle. It returns ErrRetriesExhausted, wrapped, when a
// page could not be fetched; pages before it stay applied.
func (s *Scraper) ScrapeOnce(ctx context.Context) (*Result, error) {
	key := s.cfg.Source

	var src *state.Source
	err := s.st.Read(ctx, func(tx *state.StateTx) error {
		var (
			ok  bool
			err error
		)
		src, ok, err = tx.GetSource(key)
		if err == nil && !ok {
			err = fmt.Errorf("%w: %s", state.ErrUnknownSource, key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !src.Enabled {
		return &Result{Idle: true}, nil
	}

	var count uint64
	err = s.retry(ctx, func() error {
		var err error
		count, err = s.upstream.GetTotalEventsCount(ctx)
		return err
	})
	if err != nil {
		metrics.ScrapeAborts.WithLabelValues(s.labels()...).Inc()
		return nil, fmt.Errorf("event count: %w", err)
	}
	if count == 0 {
		return &Result{Idle: true}, nil
	}

	observed := count - 1
	scraped := src.LastScrapedEvent
	if src.LastObservedEvent != nil {
		stored := *src.LastObservedEvent
		if observed <= stored && scraped >= stored {
			return &Result{Idle: true, LastObserved: stored}, nil
		}
		// never move the observed cursor backwards
		observed = max(observed, stored)
	}

	err = s.st.Mutate(ctx, func(tx *state.StateTx) error {
		return tx.UpdateSourceCursor(key, &observed, scraped)
	})
	if err != nil {
		return nil, err
	}
	metrics.LastObservedEvent.WithLabelValues(s.labels()...).Set(float64(observed))

	res := &Result{LastObserved: observed, From: scraped, To: scraped}
	for start := scraped; start <= observed; {
		end := min(start+s.cfg.PageSize-1, observed)

		page, err := s.fetch(ctx, start, end-start+1)
		if err != nil {
			metrics.ScrapeAborts.WithLabelValues(s.labels()...).Inc()
			logger.WithFields(logger.Fields{
				"source": key.String(),
				"start":  start,
				"end":    end,
				"err":    err,
			}).Error("aborting scrape cycle")
			return res, err
		}
		if len(page.Events) == 0 {
			logger.WithFields(logger.Fields{
				"source": key.String(),
				"start":  start,
			}).Warn("upstream returned an empty page, ending cycle")
			break
		}
		if n := uint64(len(page.Events)); n < end-start+1 {
			end = start + n - 1
		}

		evs := reducer.Reduce(page.Events)
		err = s.st.Mutate(ctx, func(tx *state.StateTx) error {
			if err := tx.ApplyEvents(key, evs); err != nil {
				return err
			}
			return tx.UpdateSourceCursor(key, &observed, end)
		})
		if err != nil {
			return res, fmt.Errorf("apply [%d, %d]: %w", start, end, err)
		}

		res.To = end
		res.Chunks++
		res.Events += len(evs)
		metrics.ChunksApplied.WithLabelValues(s.labels()...).Inc()
		metrics.EventsApplied.WithLabelValues(s.labels()...).Add(float64(len(evs)))
		metrics.LastScrapedEvent.WithLabelValues(s.labels()...).Set(float64(end))
		logger.WithFields(logger.Fields{
			"source": key.String(),
			"start":  start,
			"end":    end,
			"raw":    len(page.Events),
			"events": len(evs),
		}).Debug("applied event page")

		if err := s.publisher.Publish(ctx, key.ChainId, key.Operator, evs); err != nil {
			logger.WithFields(logger.Fields{
				"source": key.String(),
				"err":    err,
			}).Warn("failed to publish applied events")
		}

		if end == observed {
			break
		}
		start = end + 1
	}

	return res, nil
}

func (s *Scraper) fetch(ctx context.Context, start, length uint64) (*agreement.EventPage, error) {
	var page *agreement.EventPage
	err := s.retry(ctx, func() error {
		began := time.Now()
		var err error
		page, err = s.upstream.FetchEvents(ctx, start, length)
		metrics.FetchLatency.WithLabelValues(s.labels()...).Observe(time.Since(began).Seconds())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %d+%d: %w", start, length, err)
	}
	return page, nil
}

// retry calls fn up to MaxAttempts times. Every failure counts as transient.
func (s *Scraper) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retry.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		metrics.FetchErrors.WithLabelValues(s.labels()...).Inc()
		logger.WithFields(logger.Fields{
			"source":  s.cfg.Source.String(),
			"attempt": attempt,
			"err":     lastErr,
		}).Warn("upstream call failed")

		if s.cfg.Retry.Delay > 0 && attempt < s.cfg.Retry.MaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.Retry.Delay):
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, s.cfg.Retry.MaxAttempts, lastErr)
}

// Loop runs a cycle on every tick under the scraper's guard tag. Aborted
// cycles resume on the next tick; only storage corruption ends the loop.
func (s *Scraper) Loop(ctx context.Context) error {
	logger.WithField("source", s.cfg.Source.String()).Debug("starting scraper")
	defer func() {
		logger.WithField("source", s.cfg.Source.String()).Debug("stopping scraper")
	}()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := guard.RunScheduled(ctx, s.locker, s.Tag(), func(ctx context.Context) error {
				_, err := s.ScrapeOnce(ctx)
				return err
			})
			if errors.Is(err, state.ErrCorruptRecord) {
				return err
			}
			if err != nil && ctx.Err() == nil {
				logger.WithFields(logger.Fields{
					"source": s.cfg.Source.String(),
					"err":    err,
				}).Error("scrape cycle failed")
			}
		}
	}
}
