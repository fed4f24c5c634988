package dock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrescamacho/warehouse-go/internal/domain/shared"
	"github.com/andrescamacho/warehouse-go/internal/domain/warehouse"
)

const (
	// DefaultQueueCapacity matches the expected truck population
	DefaultQueueCapacity = 10

	// DefaultPollInterval is how long an idle worker waits before polling again
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultBlockLatency is the simulated time to move one block across the dock
	DefaultBlockLatency = 10 * time.Millisecond
)

// arrival is one truck waiting at the gate.
// done is buffered so the worker's completion never blocks and is never lost,
// even if the caller has already given up waiting.
type arrival struct {
	truck *warehouse.Truck
	done  chan error
}

// Warehouse is a single-dock warehouse: one worker goroutine (Run) services
// trucks submitted by any number of callers (Arrive).
//
// Thread-Safety:
// - the hand-off queue has its own synchronization
// - storage is guarded by its own mutex
// - a truck's cargo is touched only by the worker, then read by its caller after release
type Warehouse struct {
	name         string
	storage      *warehouse.Storage
	queue        *HandoffQueue[*arrival]
	pollInterval time.Duration
	blockLatency time.Duration
	clock        shared.Clock
	recorder     warehouse.ServiceRecorder

	// inFlight holds trucks that are queued or at the dock, keyed by pointer
	inFlight sync.Map

	running atomic.Bool

	stateMu sync.RWMutex
	state   WorkerState
}

// Stats is a point-in-time view of the warehouse for reporting and metrics
type Stats struct {
	Name          string
	State         WorkerState
	QueueDepth    int
	QueueCapacity int
	Storage       warehouse.StorageStats
}

type settings struct {
	initial       []warehouse.Block
	queueCapacity int
	pollInterval  time.Duration
	blockLatency  time.Duration
	clock         shared.Clock
	recorder      warehouse.ServiceRecorder
}

// Option customises a Warehouse at construction
type Option func(*settings)

// WithInitialStorage seeds storage with blocks, cursor at 0
func WithInitialStorage(blocks []warehouse.Block) Option {
	return func(s *settings) { s.initial = blocks }
}

// WithQueueCapacity sets the hand-off queue size
func WithQueueCapacity(capacity int) Option {
	return func(s *settings) { s.queueCapacity = capacity }
}

// WithPollInterval sets the idle backoff between polls
func WithPollInterval(d time.Duration) Option {
	return func(s *settings) { s.pollInterval = d }
}

// WithBlockLatency sets the simulated per-block transfer time
func WithBlockLatency(d time.Duration) Option {
	return func(s *settings) { s.blockLatency = d }
}

// WithClock injects the clock used for backoff and transfer latency
func WithClock(clock shared.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

// WithServiceRecorder observes every serviced truck
func WithServiceRecorder(recorder warehouse.ServiceRecorder) Option {
	return func(s *settings) { s.recorder = recorder }
}

// NewWarehouse creates a warehouse. The worker is not started until Run is called.
func NewWarehouse(name string, opts ...Option) (*Warehouse, error) {
	if name == "" {
		return nil, fmt.Errorf("warehouse name cannot be empty")
	}

	s := settings{
		queueCapacity: DefaultQueueCapacity,
		pollInterval:  DefaultPollInterval,
		blockLatency:  DefaultBlockLatency,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if s.queueCapacity <= 0 {
		return nil, fmt.Errorf("queue capacity must be positive, got %d", s.queueCapacity)
	}
	if s.pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", s.pollInterval)
	}
	if s.blockLatency < 0 {
		return nil, fmt.Errorf("block latency cannot be negative, got %s", s.blockLatency)
	}
	if s.clock == nil {
		s.clock = shared.NewRealClock()
	}
	if s.recorder == nil {
		s.recorder = NoOpRecorder()
	}

	return &Warehouse{
		name:         name,
		storage:      warehouse.NewStorage(s.initial),
		queue:        NewHandoffQueue[*arrival](s.queueCapacity),
		pollInterval: s.pollInterval,
		blockLatency: s.blockLatency,
		clock:        s.clock,
		recorder:     s.recorder,
		state:        StateStopped,
	}, nil
}

// Getters

func (w *Warehouse) Name() string                { return w.name }
func (w *Warehouse) Storage() *warehouse.Storage { return w.storage }

// QueueDepth returns how many trucks are waiting to be serviced
func (w *Warehouse) QueueDepth() int {
	return w.queue.Len()
}

// State returns the worker's current loop state
func (w *Warehouse) State() WorkerState {
	w.stateMu.RLock()
	defer w.stateMu.RUnlock()
	return w.state
}

func (w *Warehouse) setState(state WorkerState) {
	w.stateMu.Lock()
	w.state = state
	w.stateMu.Unlock()
}

// Stats returns a snapshot of worker, queue and storage state
func (w *Warehouse) Stats() Stats {
	return Stats{
		Name:          w.name,
		State:         w.State(),
		QueueDepth:    w.queue.Len(),
		QueueCapacity: w.queue.Cap(),
		Storage:       w.storage.Stats(),
	}
}

func (w *Warehouse) String() string {
	stats := w.Stats()
	return fmt.Sprintf("Warehouse[%s, state=%s, queue=%d/%d, %s]",
		w.name, stats.State, stats.QueueDepth, stats.QueueCapacity, w.storage)
}
