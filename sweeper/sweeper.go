// Package sweeper deletes client submitted records that no scraped event
// corroborated in time.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/metrics"
	"github.com/TEENet-io/bridge-mirror/state"
	logger "github.com/sirupsen/logrus"
)

const (
	Tag              = "sweep"
	DefaultThreshold = time.Hour
	DefaultInterval  = 10 * time.Minute
)

type Config struct {
	Threshold time.Duration
	Interval  time.Duration
}

type Stats struct {
	Inbound  int
	Outbound int
}

type Sweeper struct {
	cfg    Config
	st     *state.State
	locker guard.Locker
}

func New(cfg Config, st *state.State, locker guard.Locker) *Sweeper {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Sweeper{cfg: cfg, st: st, locker: locker}
}

// SweepOnce deletes every unverified record whose age at now exceeds the
// threshold. Record timestamps are unix nanoseconds.
func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (*Stats, error) {
	nowNs := now.UnixNano()
	if nowNs <= 0 {
		return &Stats{}, nil
	}
	// now - T > threshold  <=>  T < now - threshold
	cutoff := uint64(0)
	if d := nowNs - s.cfg.Threshold.Nanoseconds(); d > 0 {
		cutoff = uint64(d)
	}

	stats := &Stats{}
	err := s.st.Mutate(ctx, func(tx *state.StateTx) error {
		inKeys, err := tx.UnverifiedInboundBefore(cutoff)
		if err != nil {
			return err
		}
		for _, k := range inKeys {
			if err := tx.RemoveInbound(k); err != nil {
				return err
			}
		}

		outKeys, err := tx.UnverifiedOutboundBefore(cutoff)
		if err != nil {
			return err
		}
		for _, k := range outKeys {
			if err := tx.RemoveOutbound(k); err != nil {
				return err
			}
		}

		stats.Inbound, stats.Outbound = len(inKeys), len(outKeys)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SweptRecords.WithLabelValues("inbound").Add(float64(stats.Inbound))
	metrics.SweptRecords.WithLabelValues("outbound").Add(float64(stats.Outbound))
	if stats.Inbound > 0 || stats.Outbound > 0 {
		logger.WithFields(logger.Fields{
			"inbound":  stats.Inbound,
			"outbound": stats.Outbound,
			"cutoff":   cutoff,
		}).Info("swept unverified records")
	}
	return stats, nil
}

// Loop sweeps on every tick under the sweep tag.
func (s *Sweeper) Loop(ctx context.Context) error {
	logger.WithField("interval", s.cfg.Interval).Debug("starting sweeper")
	defer logger.Debug("stopping sweeper")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := guard.RunScheduled(ctx, s.locker, Tag, func(ctx context.Context) error {
				_, err := s.SweepOnce(ctx, time.Now())
				return err
			})
			if errors.Is(err, state.ErrCorruptRecord) {
				return err
			}
			if err != nil && ctx.Err() == nil {
				logger.WithError(err).Error("sweep failed")
			}
		}
	}
}
