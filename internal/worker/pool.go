// Package worker runs background jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("job queue is full")
	ErrStopped   = errors.New("dispatcher is stopped")
)

// Job represents a unit of work to be executed.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Worker pulls jobs from its own channel after registering it with the pool.
type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	quit       chan struct{}
	wg         *sync.WaitGroup
	logger     logrus.FieldLogger
}

func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, logger logrus.FieldLogger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		quit:       make(chan struct{}),
		wg:         wg,
		logger:     logger.WithField("worker", id),
	}
}

// Start makes the Worker listen for jobs on its JobChannel.
func (w Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				log := w.logger.WithField("job_id", job.ID())
				log.Debug("job started")
				if err := job.Execute(ctx); err != nil {
					log.WithError(err).Error("job failed")
				} else {
					log.Debug("job finished")
				}
			case <-w.quit:
				return
			}
		}
	}()
}

func (w Worker) stop() { close(w.quit) }

// Dispatcher hands queued jobs to idle workers in submission order.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job
	JobQueue   chan Job
	Workers    []Worker

	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	drained chan struct{}
	logger  logrus.FieldLogger
}

func NewDispatcher(maxWorkers, jobQueueSize int, logger logrus.FieldLogger) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		drained:    make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the workers and the dispatch loop. ctx is passed to every job.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 1; i <= d.MaxWorkers; i++ {
		w := NewWorker(i, d.WorkerPool, &d.wg, d.logger)
		d.Workers = append(d.Workers, w)
		w.Start(ctx)
	}
	go d.dispatch()
	d.logger.WithField("workers", d.MaxWorkers).Info("dispatcher running")
}

func (d *Dispatcher) dispatch() {
	defer close(d.drained)
	for job := range d.JobQueue {
		jobChannel := <-d.WorkerPool
		jobChannel <- job
	}
}

// Submit enqueues job without blocking.
func (d *Dispatcher) Submit(job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.JobQueue <- job:
		return nil
	default:
		d.logger.WithField("job_id", job.ID()).Warn("job queue full")
		return ErrQueueFull
	}
}

// Stop rejects new jobs, lets queued jobs run, then stops the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.JobQueue)
	d.mu.Unlock()

	<-d.drained
	for _, w := range d.Workers {
		w.stop()
	}
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}
