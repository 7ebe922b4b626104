package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// PlayCounter increments track play counts.
type PlayCounter interface {
	IncrementPlayCount(ctx context.Context, track models.Track) error
}

// TabDeleter removes persisted tabs.
type TabDeleter interface {
	DeleteTab(ctx context.Context, key string) error
}

// PersisterOpts configures a [Persister].
type PersisterOpts struct {
	Workers    int           // Concurrent workers (default: 2)
	QueueSize  int           // Pending jobs before new ones are dropped (default: 128)
	JobTimeout time.Duration // Per-job store deadline (default: 5s)
}

type jobKind int

const (
	playJob jobKind = iota
	deleteJob
)

type job struct {
	kind  jobKind
	track models.Track
	key   string
}

// Persister applies fire-and-forget store writes on a worker pool.
//
// It implements playlist.PlayRecorder.
type Persister struct {
	counter PlayCounter
	deleter TabDeleter
	updates chan<- Update
	logger  *log.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	jobs   chan job
	wg     sync.WaitGroup
}

// NewPersister starts the worker pool. updates may be nil.
func NewPersister(counter PlayCounter, deleter TabDeleter, logger *log.Logger, updates chan<- Update, opts PersisterOpts) *Persister {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 128
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	p := &Persister{
		counter: counter,
		deleter: deleter,
		updates: updates,
		logger:  shared.WithLogger(logger, "component", "persister"),
		timeout: opts.JobTimeout,
		jobs:    make(chan job, opts.QueueSize),
	}

	for i := 0; i < opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

// RecordPlay queues a play-count increment for track without blocking.
func (p *Persister) RecordPlay(track models.Track) {
	p.enqueue(job{kind: playJob, track: track})
}

// DeleteTab queues removal of a closed tab's rows without blocking.
func (p *Persister) DeleteTab(key string) {
	p.enqueue(job{kind: deleteJob, key: key})
}

// Close stops accepting jobs and waits for queued ones to finish.
func (p *Persister) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Persister) enqueue(j job) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	select {
	case p.jobs <- j:
	default:
		phase, what := RecordPlay, "play count for "+j.track.Path
		if j.kind == deleteJob {
			phase, what = DeleteTab, "delete of tab "+j.key
		}
		p.logger.Warn("persistence queue full, dropping job", "phase", phase)
		sendUpdate(p.updates, droppedUpdate(phase, what))
	}
}

func (p *Persister) worker(id int) {
	defer p.wg.Done()

	for j := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		switch j.kind {
		case playJob:
			err := p.counter.IncrementPlayCount(ctx, j.track)
			if err != nil {
				p.logger.Error("failed to record play", "worker", id, "path", j.track.Path, "err", err)
			} else {
				p.logger.Debug("play recorded", "worker", id, "path", j.track.Path)
			}
			sendUpdate(p.updates, recordPlayUpdate(j.track.Path, err))
		case deleteJob:
			err := p.deleter.DeleteTab(ctx, j.key)
			if err != nil {
				p.logger.Error("failed to delete tab", "worker", id, "key", j.key, "err", err)
			}
			sendUpdate(p.updates, deleteTabUpdate(j.key, err))
		}
		cancel()
	}
}
