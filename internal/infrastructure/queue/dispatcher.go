package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cometsur/checkin-sync/internal/core/ports"
	"github.com/cometsur/checkin-sync/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrStopped is returned for scans enqueued after the workers shut down.
var ErrStopped = errors.New("check-in queue stopped")

// Dispatcher routes scans to a fixed set of workers using consistent hashing
// on the scanned code, so scans of one attendee are applied in order.
type Dispatcher struct {
	workers []chan ports.ScanInput
	service ports.CheckinService
	log     zerolog.Logger
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.CheckinService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.ScanInput, numWorkers),
		service: service,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ScanInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled,
// and from then on Enqueue fails with ErrStopped.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.done)
	}()
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue sends a scan to the worker responsible for its code. It blocks
// while that worker's buffer is full, until the dispatcher stops.
func (d *Dispatcher) Enqueue(scan ports.ScanInput) error {
	select {
	case <-d.done:
		return ErrStopped
	default:
	}

	idx := d.shardIndex(scan.Code)
	select {
	case d.workers[idx] <- scan:
	case <-d.done:
		return ErrStopped
	}
	metrics.ScanQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	return nil
}

// EnqueueBatch enqueues multiple scans preserving per-attendee ordering. It
// returns how many were queued before the first failure.
func (d *Dispatcher) EnqueueBatch(scans []ports.ScanInput) (int, error) {
	for i, s := range scans {
		if err := d.Enqueue(s); err != nil {
			return i, err
		}
	}
	return len(scans), nil
}

// shardIndex maps a code deterministically to a worker index. Codes match
// attendees case-insensitively, so they are hashed the same way.
func (d *Dispatcher) shardIndex(code string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(code))))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ScanInput) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case scan, ok := <-ch:
			if !ok {
				return
			}
			metrics.ScanQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if _, err := d.service.Scan(ctx, scan); err != nil {
				d.log.Error().Err(err).
					Str("code", scan.Code).
					Int("worker_id", id).
					Msg("scan processing failed")
			}
		}
	}
}
