// Server = one scraper per source + sweeper + token maintenance + db/state + http reporter.
// All components are configured via environment variables or a config file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/database"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/minterman"
	"github.com/TEENet-io/bridge-mirror/notify"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/TEENet-io/bridge-mirror/reporter"
	"github.com/TEENet-io/bridge-mirror/scraper"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/TEENet-io/bridge-mirror/sweeper"
	"github.com/TEENet-io/bridge-mirror/tokens"
)

// SourceConfig is one entry of the SOURCES list.
type SourceConfig struct {
	ChainId       uint64 `mapstructure:"chain_id"`
	Operator      string `mapstructure:"operator"`
	Endpoint      string `mapstructure:"endpoint"`
	DepositFee    string `mapstructure:"deposit_fee"`
	WithdrawalFee string `mapstructure:"withdrawal_fee"`
	Enabled       bool   `mapstructure:"enabled"`
}

// ManagerSource is what the bridge pair updater and the ledger token
// validator need from the ledger manager.
type ManagerSource interface {
	agreement.BridgePairSource
	agreement.TokenMetadataSource
}

type MirrorServerConfig struct {
	// state side
	DbFilePath string // db file path

	// Http side
	HttpIp   string // eg. 0.0.0.0
	HttpPort string // eg. 8080

	// scraper side
	ScrapeInterval time.Duration
	PageSize       uint64
	MaxAttempts    int
	RetryDelay     time.Duration
	Sources        []SourceConfig

	// maintenance side
	SweepInterval      time.Duration
	SweepThreshold     time.Duration
	BridgePairInterval time.Duration
	TokenInterval      time.Duration

	// remote services, all optional
	LedgerManagerUrl string
	EvmRpcUrls       map[common.ChainId]string
	RedisAddr        string // enables the shared guard
	NatsUrl          string // enables event notifications

	// Pre-built clients. When set they are used instead of dialing.
	Upstreams  map[state.SourceKey]agreement.EventLog
	Manager    ManagerSource
	EvmCallers map[common.ChainId]bind.ContractCaller
}

// MirrorServer holds the objects that consists of the mirror server.
type MirrorServer struct {
	MyState   *state.State
	Locker    guard.Locker
	Publisher notify.Publisher

	Scrapers        []*scraper.Scraper
	Sweeper         *sweeper.Sweeper
	PairUpdater     *tokens.PairUpdater          // nil without a ledger manager
	LedgerValidator *tokens.LedgerTokenValidator // nil without a ledger manager
	EvmValidator    *tokens.EvmTokenValidator
	Reporter        *reporter.HttpReporter

	closers []func()
}

// Close releases the remote clients and the database. Call it after the
// group has returned.
func (ms *MirrorServer) Close() {
	for i := len(ms.closers) - 1; i >= 0; i-- {
		ms.closers[i]()
	}
	ms.closers = nil
}

// NewMirrorServer creates the mirror server and starts its loops on g.
// ctx should be the group's context so that a fatal loop stops the others.
func NewMirrorServer(msc *MirrorServerConfig, ctx context.Context, g *errgroup.Group) (*MirrorServer, error) {
	ms := &MirrorServer{}
	ok := false
	defer func() {
		if !ok {
			ms.Close()
		}
	}()

	// Create sql db, and related state_db, state.
	sqldb, err := database.OpenSqlite(msc.DbFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db file: %w", err)
	}
	ms.closers = append(ms.closers, func() { sqldb.Close() })
	myStateDb, err := state.NewStateDB(sqldb)
	if err != nil {
		return nil, fmt.Errorf("failed to create state db: %w", err)
	}
	myState, err := state.New(myStateDb)
	if err != nil {
		myStateDb.Close()
		return nil, fmt.Errorf("failed to create state: %w", err)
	}
	ms.MyState = myState
	ms.closers = append(ms.closers, myState.Close)

	sources, err := seedSources(ctx, myState, msc.Sources)
	if err != nil {
		return nil, err
	}

	// Guard: in process unless a redis address is given.
	if msc.RedisAddr != "" {
		rg, err := guard.DialRedisGuard(ctx, msc.RedisAddr, guard.DefaultLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		ms.Locker = rg
		ms.closers = append(ms.closers, func() { rg.Close() })
	} else {
		ms.Locker = guard.New()
	}

	if msc.NatsUrl != "" {
		np, err := notify.NewNatsPublisher(msc.NatsUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to nats: %w", err)
		}
		ms.Publisher = np
		ms.closers = append(ms.closers, np.Close)
	} else {
		ms.Publisher = notify.NopPublisher{}
	}

	// *** One scraper per enabled source ***
	for _, src := range sources {
		if !src.Enabled {
			logger.WithField("source", src.Key().String()).Info("source disabled, not scraping")
			continue
		}
		upstream, err := ms.upstreamFor(msc, src)
		if err != nil {
			return nil, err
		}
		ms.Scrapers = append(ms.Scrapers, scraper.New(scraper.Config{
			Source:   src.Key(),
			PageSize: msc.PageSize,
			Retry:    scraper.RetryConfig{MaxAttempts: msc.MaxAttempts, Delay: msc.RetryDelay},
			Interval: msc.ScrapeInterval,
		}, upstream, myState, ms.Locker, ms.Publisher))
	}

	ms.Sweeper = sweeper.New(sweeper.Config{
		Threshold: msc.SweepThreshold,
		Interval:  msc.SweepInterval,
	}, myState, ms.Locker)

	// *** Token maintenance ***
	manager := msc.Manager
	if manager == nil && msc.LedgerManagerUrl != "" {
		mc, err := minterman.NewManagerClient(msc.LedgerManagerUrl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ledger manager: %w", err)
		}
		manager = mc
		ms.closers = append(ms.closers, mc.Close)
	}
	if manager != nil {
		ms.PairUpdater = tokens.NewPairUpdater(manager, myState, ms.Locker, msc.BridgePairInterval)
		ms.LedgerValidator = tokens.NewLedgerTokenValidator(manager, myState, ms.Locker, msc.TokenInterval, tokens.DefaultNegativeTTL)
	} else {
		logger.Warn("no ledger manager configured, bridge pairs and ledger tokens are not maintained")
	}

	callers, err := ms.evmCallers(ctx, msc)
	if err != nil {
		return nil, err
	}
	ms.EvmValidator = tokens.NewEvmTokenValidator(tokens.NewErc20Fetcher(callers), myState, ms.Locker, msc.TokenInterval)

	ms.Reporter = reporter.NewHttpReporter(msc.HttpIp, msc.HttpPort, myState)

	// Important: Turn on the loops!
	for _, s := range ms.Scrapers {
		s := s
		g.Go(func() error { return s.Loop(ctx) })
	}
	g.Go(func() error { return ms.Sweeper.Loop(ctx) })
	if ms.PairUpdater != nil {
		g.Go(func() error { return ms.PairUpdater.Loop(ctx) })
		g.Go(func() error { return ms.LedgerValidator.Loop(ctx) })
	}
	g.Go(func() error { return ms.EvmValidator.Loop(ctx) })
	g.Go(func() error { return ms.Reporter.Run(ctx) })

	ok = true
	return ms, nil
}

func (ms *MirrorServer) upstreamFor(msc *MirrorServerConfig, src *state.Source) (agreement.EventLog, error) {
	if up, ok := msc.Upstreams[src.Key()]; ok {
		return up, nil
	}
	schema, err := minterman.SchemaFor(src.Operator)
	if err != nil {
		return nil, err
	}
	client, err := minterman.NewClient(&minterman.Config{URL: src.Endpoint, Schema: schema})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s at %s: %w", src.Key().String(), src.Endpoint, err)
	}
	ms.closers = append(ms.closers, client.Close)
	return client, nil
}

func (ms *MirrorServer) evmCallers(ctx context.Context, msc *MirrorServerConfig) (map[common.ChainId]bind.ContractCaller, error) {
	callers := make(map[common.ChainId]bind.ContractCaller, len(msc.EvmRpcUrls)+len(msc.EvmCallers))
	for chain, url := range msc.EvmRpcUrls {
		client, err := ethclient.DialContext(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s rpc: %w", chain.Name(), err)
		}
		callers[chain] = client
		ms.closers = append(ms.closers, client.Close)
	}
	for chain, caller := range msc.EvmCallers {
		callers[chain] = caller
	}
	return callers, nil
}

// seedSources registers the configured sources. Scrape cursors of sources
// already in the db are kept.
func seedSources(ctx context.Context, st *state.State, cfgs []SourceConfig) ([]*state.Source, error) {
	sources := make([]*state.Source, 0, len(cfgs))
	for _, c := range cfgs {
		src, err := c.toSource()
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	err := st.Mutate(ctx, func(tx *state.StateTx) error {
		for _, src := range sources {
			if err := tx.UpsertSource(src); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed sources: %w", err)
	}
	return sources, nil
}

func (c SourceConfig) toSource() (*state.Source, error) {
	op, err := common.ParseOperator(c.Operator)
	if err != nil {
		return nil, err
	}

	chain := common.LedgerChain
	if op != common.OperatorDex {
		chain = common.ChainId(c.ChainId)
		if !chain.IsSupported() {
			return nil, fmt.Errorf("%w: %d", common.ErrUnsupportedChain, c.ChainId)
		}
	}

	src := &state.Source{
		ChainId:  chain,
		Operator: op,
		Endpoint: c.Endpoint,
		Enabled:  c.Enabled,
	}
	if src.DepositFee, err = optionalAmount(c.DepositFee); err != nil {
		return nil, fmt.Errorf("deposit fee of %s: %w", src.Key().String(), err)
	}
	if src.WithdrawalFee, err = optionalAmount(c.WithdrawalFee); err != nil {
		return nil, fmt.Errorf("withdrawal fee of %s: %w", src.Key().String(), err)
	}
	return src, nil
}

func optionalAmount(s string) (*numeric.Amount, error) {
	if s == "" {
		return nil, nil
	}
	a, err := numeric.ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create, then start the mirror server and wait.
// Press Ctrl-C to kill the server.
func StartMirrorServerAndWait(msc *MirrorServerConfig) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	ms, err := NewMirrorServer(msc, gctx, g)
	if err != nil {
		logger.Fatalf("failed to create mirror server: %v", err)
		return
	}
	defer ms.Close()

	// wait for all loops to finish (which is until a signal arrives)
	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("mirror server stopped")
	case errors.Is(err, state.ErrCorruptRecord):
		logger.WithError(err).Fatal("state is corrupt")
	default:
		logger.WithError(err).Error("mirror server stopped")
	}
}
