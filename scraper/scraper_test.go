package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TEENet-io/bridge-mirror/agreement"
	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/minterman"
	"github.com/TEENet-io/bridge-mirror/notify"
	"github.com/TEENet-io/bridge-mirror/numeric"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appicEth = state.SourceKey{ChainId: common.EthereumMainnet, Operator: common.OperatorAppic}

type testEnv struct {
	st       *state.State
	minter   *minterman.SimulatedMinter
	guard    *guard.Guard
	scraper  *Scraper
	receiver common.Principal
	close    func()
}

func newTestEnv(t *testing.T, src state.SourceKey, publisher notify.Publisher) *testEnv {
	st, close, err := state.NewSimulatedState()
	require.NoError(t, err)

	err = st.Mutate(context.Background(), func(tx *state.StateTx) error {
		return tx.UpsertSource(&state.Source{ChainId: src.ChainId, Operator: src.Operator, Enabled: true})
	})
	require.NoError(t, err)

	env := &testEnv{
		st:       st,
		minter:   minterman.NewSimulatedMinter(),
		guard:    guard.New(),
		receiver: common.RandPrincipal(),
		close:    close,
	}
	env.scraper = New(Config{Source: src, Interval: MinInterval}, env.minter, st, env.guard, publisher)
	return env
}

// appendDeposits adds n upstream events. Every fifth one is bookkeeping the
// reducer drops; the rest are deposits to env.receiver. It returns the
// number of deposits.
func (env *testEnv) appendDeposits(n int) int {
	deposits := 0
	for i := 0; i < n; i++ {
		if i%5 == 4 {
			env.minter.Append(uint64(i), &minterman.AppicSyncedToBlock{BlockNumber: uint64(i)})
			continue
		}
		dep := minterman.AppicAcceptedDeposit(agreement.AcceptedDeposit{
			TransactionHash: common.RandTxHash(),
			BlockNumber:     uint64(i),
			From:            common.RandEthAddress(),
			Value:           numeric.FromUint64(uint64(i + 1)),
			Principal:       env.receiver,
		})
		env.minter.Append(uint64(i), &dep)
		deposits++
	}
	return deposits
}

func (env *testEnv) source(t *testing.T, key state.SourceKey) *state.Source {
	var src *state.Source
	err := env.st.Read(context.Background(), func(tx *state.StateTx) error {
		var err error
		src, _, err = tx.GetSource(key)
		return err
	})
	require.NoError(t, err)
	return src
}

func (env *testEnv) inboundCount(t *testing.T) int {
	var n int
	err := env.st.Read(context.Background(), func(tx *state.StateTx) error {
		recs, err := tx.InboundByParticipant(state.Participant{Principal: &env.receiver})
		n = len(recs)
		return err
	})
	require.NoError(t, err)
	return n
}

func TestScrapePaginates(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()
	ctx := context.Background()

	deposits := env.appendDeposits(250)
	res, err := env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, []minterman.FetchCall{
		{Start: 0, Length: 100},
		{Start: 100, Length: 100},
		{Start: 200, Length: 50},
	}, env.minter.Fetches())
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, deposits, res.Events)
	assert.Equal(t, uint64(249), res.To)

	src := env.source(t, appicEth)
	require.NotNil(t, src.LastObservedEvent)
	assert.Equal(t, uint64(249), *src.LastObservedEvent)
	assert.Equal(t, uint64(249), src.LastScrapedEvent)
	assert.Equal(t, deposits, env.inboundCount(t))

	// nothing new upstream
	env.minter.ResetFetches()
	res, err = env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.Empty(t, env.minter.Fetches())

	// new events resume from the cursor, replaying its event
	more := env.appendDeposits(10)
	res, err = env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []minterman.FetchCall{{Start: 249, Length: 11}}, env.minter.Fetches())
	assert.Equal(t, uint64(259), res.To)
	assert.Equal(t, uint64(259), env.source(t, appicEth).LastScrapedEvent)
	assert.Equal(t, deposits+more, env.inboundCount(t))
}

func TestScrapeAbortsAfterRetries(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()
	ctx := context.Background()

	env.appendDeposits(250)
	env.minter.FailFetchAt(100, DefaultMaxAttempts)

	res, err := env.scraper.ScrapeOnce(ctx)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	assert.ErrorIs(t, err, minterman.ErrSimulatedFailure)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Chunks)

	fetches := env.minter.Fetches()
	require.Len(t, fetches, 1+DefaultMaxAttempts)
	for _, f := range fetches[1:] {
		assert.Equal(t, minterman.FetchCall{Start: 100, Length: 100}, f)
	}

	src := env.source(t, appicEth)
	assert.Equal(t, uint64(249), *src.LastObservedEvent)
	assert.Equal(t, uint64(99), src.LastScrapedEvent)

	// the next cycle resumes although upstream did not grow
	env.minter.ResetFetches()
	_, err = env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []minterman.FetchCall{
		{Start: 99, Length: 100},
		{Start: 199, Length: 51},
	}, env.minter.Fetches())
	assert.Equal(t, uint64(249), env.source(t, appicEth).LastScrapedEvent)
}

func TestScrapeRetriesTransientFailures(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()

	deposits := env.appendDeposits(20)
	env.minter.FailFetchAt(0, DefaultMaxAttempts-1)

	res, err := env.scraper.ScrapeOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, env.minter.Fetches(), DefaultMaxAttempts)
	assert.Equal(t, uint64(19), res.To)
	assert.Equal(t, deposits, env.inboundCount(t))
}

func TestScrapeIdle(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()
	ctx := context.Background()

	res, err := env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.Nil(t, env.source(t, appicEth).LastObservedEvent)

	env.minter.FailCount(errors.New("unreachable"))
	_, err = env.scraper.ScrapeOnce(ctx)
	assert.ErrorIs(t, err, ErrRetriesExhausted)
	env.minter.FailCount(nil)

	// disabled sources are skipped
	env.appendDeposits(3)
	err = env.st.Mutate(ctx, func(tx *state.StateTx) error {
		return tx.UpsertSource(&state.Source{ChainId: appicEth.ChainId, Operator: appicEth.Operator, Enabled: false})
	})
	require.NoError(t, err)
	res, err = env.scraper.ScrapeOnce(ctx)
	require.NoError(t, err)
	assert.True(t, res.Idle)
	assert.Empty(t, env.minter.Fetches())

	_, err = New(Config{Source: state.SourceKey{ChainId: common.BscMainnet, Operator: common.OperatorAppic}}, env.minter, env.st, env.guard, nil).ScrapeOnce(ctx)
	assert.ErrorIs(t, err, state.ErrUnknownSource)
}

func TestScrapeCursorIsMonotonic(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()
	ctx := context.Background()

	prev := uint64(0)
	for _, n := range []int{1, 0, 99, 100, 1, 0, 37} {
		env.appendDeposits(n)
		_, err := env.scraper.ScrapeOnce(ctx)
		require.NoError(t, err)

		src := env.source(t, appicEth)
		assert.GreaterOrEqual(t, src.LastScrapedEvent, prev)
		require.NotNil(t, src.LastObservedEvent)
		assert.LessOrEqual(t, src.LastScrapedEvent, *src.LastObservedEvent)
		prev = src.LastScrapedEvent
	}
	assert.Equal(t, uint64(237), prev)
}

type recordingPublisher struct {
	batches [][]agreement.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ common.ChainId, _ common.Operator, evs []agreement.Event) error {
	p.batches = append(p.batches, evs)
	return nil
}

func TestScrapeDexSource(t *testing.T) {
	dexSrc := state.SourceKey{ChainId: common.LedgerChain, Operator: common.OperatorDex}
	pub := &recordingPublisher{}
	env := newTestEnv(t, dexSrc, pub)
	defer env.close()

	trader := common.RandPrincipal()
	for i := 0; i < 3; i++ {
		swap := minterman.DexSwap(agreement.Swap{
			Principal: trader,
			AmountIn:  numeric.FromUint64(uint64(i + 1)),
			AmountOut: numeric.FromUint64(uint64(i + 2)),
		})
		env.minter.Append(uint64(100+i), &swap)
	}

	_, err := env.scraper.ScrapeOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 3)

	// replaying the same page does not duplicate actions
	env.minter.Append(200, &minterman.AppicSkippedBlock{BlockNumber: 1})
	_, err = env.scraper.ScrapeOnce(context.Background())
	require.NoError(t, err)

	err = env.st.Read(context.Background(), func(tx *state.StateTx) error {
		actions, err := tx.DexActions(trader)
		require.NoError(t, err)
		require.Len(t, actions, 3)
		for i, a := range actions {
			assert.Equal(t, uint64(i), a.EventIndex)
			assert.Equal(t, uint64(100+i), a.Timestamp)
		}
		return nil
	})
	assert.NoError(t, err)
}

func TestLoopRunsUnderGuard(t *testing.T) {
	env := newTestEnv(t, appicEth, nil)
	defer env.close()
	env.appendDeposits(30)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release, err := env.guard.Acquire(ctx, env.scraper.Tag())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- env.scraper.Loop(ctx) }()

	time.Sleep(3 * MinInterval)
	assert.Empty(t, env.minter.Fetches())
	assert.Equal(t, "scrape:ethereum:appic", env.scraper.Tag())

	release()
	assert.Eventually(t, func() bool {
		var scraped uint64
		_ = env.st.Read(context.Background(), func(tx *state.StateTx) error {
			src, _, err := tx.GetSource(appicEth)
			if src != nil {
				scraped = src.LastScrapedEvent
			}
			return err
		})
		return scraped == 29
	}, 5*time.Second, MinInterval)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
