// Package poller keeps usage records and aggregate statistics for a selected
// period fresh, optionally refetching on a fixed interval.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/usage-dashboard-tui/internal/models"
)

// DefaultInterval is the auto-refresh period.
const DefaultInterval = 30 * time.Second

const defaultErrorMessage = "Failed to fetch data"

// API fetches the two halves of a cycle.
type API interface {
	Usage(ctx context.Context, period models.Period) ([]models.UsageRecord, error)
	Stats(ctx context.Context, period models.Period) (*models.StatsSummary, error)
}

// Recorder receives every successfully applied cycle.
type Recorder interface {
	RecordCycle(period models.Period, records []models.UsageRecord, stats models.StatsSummary, at time.Time) error
}

// Config holds configuration for the poller.
type Config struct {
	Clock       clock.Clock
	Recorder    Recorder
	Period      models.Period
	Interval    time.Duration
	AutoRefresh bool
}

// State is a consistent snapshot of the poller outputs. Data and Stats always
// come from the same cycle.
type State struct {
	UpdatedAt   time.Time
	Stats       *models.StatsSummary
	Period      models.Period
	Error       string
	Data        []models.UsageRecord
	Generation  uint64
	Loading     bool
	AutoRefresh bool
}

type rescheduleRequest struct {
	done    chan struct{}
	enabled bool
}

// Poller runs fetch cycles. One goroutine owns the refresh timer; each cycle
// runs on its own goroutine with its own cancellable context.
type Poller struct {
	api         API
	clock       clock.Clock
	recorder    Recorder
	ctx         context.Context
	cancel      context.CancelFunc
	cancelCycle context.CancelFunc
	subscribers map[int]chan State
	reschedule  chan rescheduleRequest
	stopChan    chan struct{}
	done        chan struct{}
	state       State
	interval    time.Duration
	gen         uint64
	nextSubID   int
	cycles      sync.WaitGroup
	startOnce   sync.Once
	closeOnce   sync.Once
	mu          sync.Mutex
	started     bool
	closed      bool
}

// New creates a poller. Nothing is fetched until Start.
func New(api API, cfg Config) *Poller {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Period == "" {
		cfg.Period = models.DefaultPeriod
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		api:         api,
		clock:       cfg.Clock,
		recorder:    cfg.Recorder,
		interval:    cfg.Interval,
		ctx:         ctx,
		cancel:      cancel,
		subscribers: make(map[int]chan State),
		reschedule:  make(chan rescheduleRequest),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		state: State{
			Period:      cfg.Period,
			AutoRefresh: cfg.AutoRefresh,
			Loading:     true,
		},
	}
}

// Start issues the first cycle and starts the refresh loop.
func (p *Poller) Start() {
	p.startOnce.Do(func() {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		p.started = true
		auto := p.state.AutoRefresh
		p.mu.Unlock()

		go p.loop(auto)
		p.startCycle()
	})
}

// State returns the current snapshot.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Refetch starts a manual cycle, superseding any cycle in flight.
func (p *Poller) Refetch() {
	p.startCycle()
}

// SetPeriod switches the window. A changed period refetches immediately and
// restarts the refresh timer.
func (p *Poller) SetPeriod(period models.Period) {
	p.mu.Lock()
	if p.state.Period == period {
		p.mu.Unlock()
		return
	}
	p.state.Period = period
	auto := p.state.AutoRefresh
	p.mu.Unlock()

	p.startCycle()
	p.setTimer(auto)
}

// SetAutoRefresh enables or disables the refresh timer. Enabling refetches
// immediately.
func (p *Poller) SetAutoRefresh(enabled bool) {
	p.mu.Lock()
	if p.state.AutoRefresh == enabled {
		p.mu.Unlock()
		return
	}
	p.state.AutoRefresh = enabled
	p.publishLocked()
	p.mu.Unlock()

	if enabled {
		p.startCycle()
	}
	p.setTimer(enabled)
}

// Subscribe returns a channel receiving a snapshot after every change and a
// function that ends the subscription.
func (p *Poller) Subscribe() (<-chan State, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan State, 1)
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	p.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(ch)
			}
		})
	}
}

// Close stops the timer, cancels the cycle in flight and waits for every
// goroutine to exit.
func (p *Poller) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		started := p.started
		p.cancel()
		p.mu.Unlock()

		close(p.stopChan)
		if started {
			<-p.done
		}
		p.cycles.Wait()

		p.mu.Lock()
		for id, ch := range p.subscribers {
			delete(p.subscribers, id)
			close(ch)
		}
		p.mu.Unlock()
	})
}

// setTimer hands the timer change to the loop and waits until it is applied.
func (p *Poller) setTimer(enabled bool) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}

	req := rescheduleRequest{enabled: enabled, done: make(chan struct{})}
	select {
	case p.reschedule <- req:
		<-req.done
	case <-p.stopChan:
	}
}

func (p *Poller) loop(auto bool) {
	defer close(p.done)

	var timer clock.Timer
	var tick <-chan time.Time
	schedule := func(enabled bool) {
		if timer != nil {
			timer.Stop()
			timer, tick = nil, nil
		}
		if enabled {
			timer = p.clock.NewTimer(p.interval)
			tick = timer.Chan()
		}
	}
	schedule(auto)

	for {
		select {
		case <-p.stopChan:
			schedule(false)
			return
		case req := <-p.reschedule:
			schedule(req.enabled)
			close(req.done)
		case <-tick:
			p.startCycle()
			schedule(true)
		}
	}
}

func (p *Poller) startCycle() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancelCycle != nil {
		p.cancelCycle()
	}
	p.gen++
	gen := p.gen
	period := p.state.Period
	ctx, cancel := context.WithCancel(p.ctx)
	p.cancelCycle = cancel
	p.state.Loading = true
	p.state.Error = ""
	p.publishLocked()
	p.cycles.Add(1)
	p.mu.Unlock()

	go p.runCycle(ctx, cancel, gen, period)
}

func (p *Poller) runCycle(ctx context.Context, cancel context.CancelFunc, gen uint64, period models.Period) {
	defer p.cycles.Done()
	defer cancel()

	var records []models.UsageRecord
	var stats *models.StatsSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = p.api.Usage(gctx, period)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = p.api.Stats(gctx, period)
		return err
	})
	err := g.Wait()

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		logger.Debug("discarding superseded fetch cycle", "generation", gen, "period", period)
		return
	}

	p.state.Loading = false
	p.state.Generation = gen
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = defaultErrorMessage
		}
		p.state.Error = msg
		p.publishLocked()
		p.mu.Unlock()
		logger.Warn("usage fetch failed", "period", period, "error", err)
		return
	}

	if records == nil {
		records = []models.UsageRecord{}
	}
	now := p.clock.Now()
	p.state.Data = records
	p.state.Stats = stats
	p.state.UpdatedAt = now
	p.publishLocked()
	p.mu.Unlock()

	if p.recorder != nil && stats != nil {
		if err := p.recorder.RecordCycle(period, records, *stats, now); err != nil {
			logger.Error("failed to record usage snapshot", "error", err)
		}
	}
}

func (p *Poller) publishLocked() {
	snapshot := p.state
	for _, ch := range p.subscribers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}
