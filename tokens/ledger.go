package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/metrics"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/coocood/freecache"
	logger "github.com/sirupsen/logrus"
)

const (
	LedgerValidatorTag     = "validate_ledger_tokens"
	DefaultTokenInterval   = 30 * time.Minute
	DefaultNegativeTTL     = 6 * time.Hour
	negativeCacheSizeBytes = 1024 * 1024
)

const icrcTokenType = "ICRC-1"

// LedgerTokenValidator fetches metadata for paired ledgers that have no
// token record yet. Ledgers whose metadata fails to validate are not
// retried until their negative cache entry expires.
type LedgerTokenValidator struct {
	src      agreement.TokenMetadataSource
	st       *state.State
	locker   guard.Locker
	interval time.Duration

	negTTL time.Duration
	failed *freecache.Cache
}

func NewLedgerTokenValidator(src agreement.TokenMetadataSource, st *state.State, locker guard.Locker, interval, negativeTTL time.Duration) *LedgerTokenValidator {
	if interval <= 0 {
		interval = DefaultTokenInterval
	}
	if negativeTTL <= 0 {
		negativeTTL = DefaultNegativeTTL
	}
	return &LedgerTokenValidator{
		src:      src,
		st:       st,
		locker:   locker,
		interval: interval,
		negTTL:   negativeTTL,
		failed:   freecache.NewCache(negativeCacheSizeBytes),
	}
}

// ValidationStats counts the ledgers seen by one pass.
type ValidationStats struct {
	Stored  int
	Failed  int
	Skipped int
}

func (v *LedgerTokenValidator) ValidateOnce(ctx context.Context) (*ValidationStats, error) {
	var pending []common.Principal
	err := v.st.Read(ctx, func(tx *state.StateTx) error {
		pairs, err := tx.BridgePairs()
		if err != nil {
			return err
		}
		seen := make(map[common.Principal]bool)
		for _, p := range pairs {
			if seen[p.LedgerId] {
				continue
			}
			seen[p.LedgerId] = true

			_, ok, err := tx.GetLedgerToken(p.LedgerId)
			if err != nil {
				return err
			}
			if !ok {
				pending = append(pending, p.LedgerId)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := &ValidationStats{}
	for _, id := range pending {
		if v.recentlyFailed(id) {
			stats.Skipped++
			continue
		}

		md, err := v.fetch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Failed++
			v.markFailed(id, err)
			continue
		}

		err = v.st.Mutate(ctx, func(tx *state.StateTx) error {
			return tx.UpsertLedgerToken(&state.LedgerToken{
				LedgerId:  id,
				Name:      md.Name,
				Symbol:    md.Symbol,
				Decimals:  md.Decimals,
				Fee:       md.Fee,
				Logo:      md.Logo,
				TokenType: icrcTokenType,
			})
		})
		if err != nil {
			return stats, err
		}
		stats.Stored++
	}
	return stats, nil
}

func (v *LedgerTokenValidator) fetch(ctx context.Context, id common.Principal) (*LedgerMetadata, error) {
	entries, err := v.src.GetLedgerMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return ParseLedgerMetadata(entries)
}

func (v *LedgerTokenValidator) recentlyFailed(id common.Principal) bool {
	_, err := v.failed.Get([]byte(id))
	return err == nil
}

func (v *LedgerTokenValidator) markFailed(id common.Principal, err error) {
	kind := "ledger_fetch"
	var mdErr *MetadataError
	if errors.As(err, &mdErr) {
		kind = "ledger_metadata"
	}
	metrics.TokenValidationErrors.WithLabelValues(kind).Inc()
	logger.WithFields(logger.Fields{
		"ledger": id.String(),
		"err":    err,
	}).Warn("failed to validate ledger token")

	if err := v.failed.Set([]byte(id), []byte{1}, int(v.negTTL.Seconds())); err != nil {
		logger.WithError(err).Error("failed to cache ledger validation failure")
	}
}

func (v *LedgerTokenValidator) Loop(ctx context.Context) error {
	return runEvery(ctx, v.interval, v.locker, LedgerValidatorTag, func(ctx context.Context) error {
		_, err := v.ValidateOnce(ctx)
		return err
	})
}
