package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/guard"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *state.State {
	st, close, err := state.NewSimulatedState()
	require.NoError(t, err)
	t.Cleanup(close)
	return st
}

func insert(t *testing.T, st *state.State, in []*state.InboundTx, out []*state.OutboundTx) {
	err := st.Mutate(context.Background(), func(tx *state.StateTx) error {
		for _, r := range in {
			if err := tx.RecordNewInbound(r); err != nil {
				return err
			}
		}
		for _, r := range out {
			if err := tx.RecordNewOutbound(r); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func exists(t *testing.T, st *state.State, in *state.InboundTx, out *state.OutboundTx) bool {
	var ok bool
	err := st.Read(context.Background(), func(tx *state.StateTx) error {
		var err error
		if in != nil {
			_, ok, err = tx.GetInbound(in.Key())
		} else {
			_, ok, err = tx.GetOutbound(out.Key())
		}
		return err
	})
	require.NoError(t, err)
	return ok
}

func TestSweepDeletesStaleUnverified(t *testing.T) {
	st := newTestState(t)
	s := New(Config{}, st, guard.New())

	created := time.Unix(1_700_000_000, 0)
	ts := uint64(created.UnixNano())

	stale := state.RandInbound(common.EthereumMainnet, false, ts)
	kept := state.RandInbound(common.EthereumMainnet, true, ts)
	staleOut := state.RandOutbound(common.BscMainnet, 1, false, ts)
	keptOut := state.RandOutbound(common.BscMainnet, 2, true, ts)
	insert(t, st, []*state.InboundTx{stale, kept}, []*state.OutboundTx{staleOut, keptOut})

	stats, err := s.SweepOnce(context.Background(), created.Add(61*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, &Stats{Inbound: 1, Outbound: 1}, stats)

	assert.False(t, exists(t, st, stale, nil))
	assert.False(t, exists(t, st, nil, staleOut))
	assert.True(t, exists(t, st, kept, nil))
	assert.True(t, exists(t, st, nil, keptOut))
}

func TestSweepThresholdIsStrict(t *testing.T) {
	st := newTestState(t)
	s := New(Config{Threshold: time.Hour}, st, guard.New())

	created := time.Unix(1_700_000_000, 0)
	rec := state.RandInbound(common.EthereumMainnet, false, uint64(created.UnixNano()))
	insert(t, st, []*state.InboundTx{rec}, nil)

	for _, age := range []time.Duration{0, 59 * time.Minute, time.Hour} {
		stats, err := s.SweepOnce(context.Background(), created.Add(age))
		require.NoError(t, err)
		assert.Zero(t, stats.Inbound, "age %v", age)
		assert.True(t, exists(t, st, rec, nil))
	}

	stats, err := s.SweepOnce(context.Background(), created.Add(time.Hour+time.Nanosecond))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Inbound)
	assert.False(t, exists(t, st, rec, nil))
}

func TestSweepEarlyClock(t *testing.T) {
	st := newTestState(t)
	s := New(Config{}, st, guard.New())

	rec := state.RandInbound(common.EthereumMainnet, false, 0)
	insert(t, st, []*state.InboundTx{rec}, nil)

	stats, err := s.SweepOnce(context.Background(), time.Unix(0, int64(30*time.Minute)))
	require.NoError(t, err)
	assert.Zero(t, stats.Inbound)
	assert.True(t, exists(t, st, rec, nil))
}

func TestLoopSkipsWhileBusy(t *testing.T) {
	st := newTestState(t)
	g := guard.New()
	s := New(Config{Interval: 20 * time.Millisecond}, st, g)

	rec := state.RandInbound(common.EthereumMainnet, false, 1)
	insert(t, st, []*state.InboundTx{rec}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release, err := g.Acquire(ctx, Tag)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Loop(ctx) }()

	time.Sleep(100 * time.Millisecond)
	assert.True(t, exists(t, st, rec, nil))

	release()
	assert.Eventually(t, func() bool {
		return !exists(t, st, rec, nil)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
