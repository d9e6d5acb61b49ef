package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/state"
	logger "github.com/sirupsen/logrus"
)

const (
	PairUpdaterTag      = "update_bridge_pairs"
	DefaultPairInterval = 10 * time.Minute
)

// PairUpdater copies the ledger manager's bridge pairs into the state.
// Pairs already known are left untouched.
type PairUpdater struct {
	src      agreement.BridgePairSource
	st       *state.State
	locker   guard.Locker
	interval time.Duration
}

func NewPairUpdater(src agreement.BridgePairSource, st *state.State, locker guard.Locker, interval time.Duration) *PairUpdater {
	if interval <= 0 {
		interval = DefaultPairInterval
	}
	return &PairUpdater{src: src, st: st, locker: locker, interval: interval}
}

// UpdateOnce fetches the full pair list and returns how many pairs were new.
func (u *PairUpdater) UpdateOnce(ctx context.Context) (int, error) {
	infos, err := u.src.GetBridgePairs(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	err = u.st.Mutate(ctx, func(tx *state.StateTx) error {
		added = 0
		for _, info := range infos {
			if !info.ChainId.IsSupported() {
				logger.WithFields(logger.Fields{
					"chain":    info.ChainId,
					"operator": info.Operator,
					"token":    info.EvmToken.String(),
				}).Debug("skipping bridge pair on unsupported chain")
				continue
			}
			ok, err := tx.RecordBridgePair(&state.BridgePair{
				Operator: info.Operator,
				ChainId:  info.ChainId,
				EvmToken: info.EvmToken,
				LedgerId: info.LedgerId,
			})
			if err != nil {
				return err
			}
			if ok {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if added > 0 {
		logger.WithFields(logger.Fields{
			"added":    added,
			"reported": len(infos),
		}).Info("recorded new bridge pairs")
	}
	return added, nil
}

func (u *PairUpdater) Loop(ctx context.Context) error {
	return runEvery(ctx, u.interval, u.locker, PairUpdaterTag, func(ctx context.Context) error {
		_, err := u.UpdateOnce(ctx)
		return err
	})
}

// runEvery runs fn on every tick under tag. Errors are logged; storage
// corruption ends the loop.
func runEvery(ctx context.Context, interval time.Duration, locker guard.Locker, tag string, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			err := guard.RunScheduled(ctx, locker, tag, fn)
			if isFatal(err) {
				return err
			}
			if err != nil && ctx.Err() == nil {
				logger.WithFields(logger.Fields{
					"task": tag,
					"err":  err,
				}).Error("scheduled task failed")
			}
		}
	}
}

func isFatal(err error) bool {
	return errors.Is(err, state.ErrCorruptRecord)
}
