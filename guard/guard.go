// Package guard keeps two runs of the same task class from overlapping.
// A run that finds its tag taken is skipped, never queued.
package guard

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/TEENet-io/bridge-mirror/metrics"
	logger "github.com/sirupsen/logrus"
)

var ErrAlreadyProcessing = errors.New("task already processing")

// Locker hands out exclusive ownership of a task tag until the returned
// release function is called.
type Locker interface {
	Acquire(ctx context.Context, tag string) (release func(), err error)
}

// Guard is the in-process Locker: a set of active tags.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func New() *Guard {
	return &Guard{active: make(map[string]struct{})}
}

func (g *Guard) Acquire(_ context.Context, tag string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.active[tag]; ok {
		return nil, ErrAlreadyProcessing
	}
	g.active[tag] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, tag)
			g.mu.Unlock()
		})
	}, nil
}

// Active lists the tags currently held, sorted.
func (g *Guard) Active() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	tags := make([]string, 0, len(g.active))
	for tag := range g.active {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (g *Guard) Run(ctx context.Context, tag string, fn func(ctx context.Context) error) error {
	return Run(ctx, g, tag, fn)
}

// Run executes fn while holding tag. The tag is released when fn returns or
// panics. ErrAlreadyProcessing is returned without calling fn.
func Run(ctx context.Context, l Locker, tag string, fn func(ctx context.Context) error) error {
	release, err := l.Acquire(ctx, tag)
	if err != nil {
		return err
	}
	defer release()

	return fn(ctx)
}

// RunScheduled is Run for timer driven entry points: a busy tag is a skipped
// run and is logged, not returned.
func RunScheduled(ctx context.Context, l Locker, tag string, fn func(ctx context.Context) error) error {
	err := Run(ctx, l, tag, fn)
	if errors.Is(err, ErrAlreadyProcessing) {
		metrics.TaskSkips.WithLabelValues(tag).Inc()
		logger.WithField("task", tag).Debug("previous run still in progress, skipping")
		return nil
	}
	return err
}
