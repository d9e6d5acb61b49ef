package minterman

import (
	"context"
	"errors"
	"sync"

	"github.com/TEENet-io/bridge-mirror/agreement"
)

var ErrSimulatedFailure = errors.New("simulated upstream failure")

type FetchCall struct {
	Start  uint64
	Length uint64
}

// SimulatedMinter is an in-memory event log with scripted failures.
type SimulatedMinter struct {
	mu sync.Mutex

	events   []agreement.RawEvent
	failures map[uint64]int
	countErr error
	fetches  []FetchCall
}

func NewSimulatedMinter() *SimulatedMinter {
	return &SimulatedMinter{failures: make(map[uint64]int)}
}

// Append adds one raw payload at the end of the log and returns its index.
func (m *SimulatedMinter) Append(timestamp uint64, payload any) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := uint64(len(m.events))
	m.events = append(m.events, agreement.RawEvent{Index: idx, Timestamp: timestamp, Payload: payload})
	return idx
}

// FailFetchAt makes the next times fetches starting at start fail.
func (m *SimulatedMinter) FailFetchAt(start uint64, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[start] = times
}

func (m *SimulatedMinter) FailCount(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countErr = err
}

// Fetches returns every fetch attempt, failed ones included.
func (m *SimulatedMinter) Fetches() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.fetches...)
}

func (m *SimulatedMinter) ResetFetches() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = nil
}

func (m *SimulatedMinter) GetTotalEventsCount(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}
	return uint64(len(m.events)), nil
}

func (m *SimulatedMinter) FetchEvents(ctx context.Context, start, length uint64) (*agreement.EventPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches = append(m.fetches, FetchCall{Start: start, Length: length})
	if n := m.failures[start]; n > 0 {
		m.failures[start] = n - 1
		return nil, ErrSimulatedFailure
	}

	total := uint64(len(m.events))
	page := &agreement.EventPage{TotalEventCount: total}
	if start >= total {
		return page, nil
	}
	end := min(start+length, total)
	page.Events = append([]agreement.RawEvent(nil), m.events[start:end]...)
	return page, nil
}

var _ agreement.EventLog = (*SimulatedMinter)(nil)
