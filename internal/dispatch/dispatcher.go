package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgemesh/meshexec/internal/observability"
	"github.com/rs/zerolog/log"
)

// Executor runs one built command against one device and returns combined
// output. Implemented by the transport fallback chain.
type Executor interface {
	Execute(ctx context.Context, deviceID, command string) (string, error)
}

// Dispatcher validates submit requests, allocates execution ids, and spawns
// one independent background task per accepted request. It never blocks the
// submission path on remote work.
type Dispatcher struct {
	store *Store
	exec  Executor
	node  string

	lastTS atomic.Int64
	wg     sync.WaitGroup
}

func NewDispatcher(store *Store, exec Executor, node string) *Dispatcher {
	if store == nil {
		store = NewStore()
	}
	return &Dispatcher{store: store, exec: exec, node: node}
}

// Dispatch accepts one execution request. On success the pending record is
// visible before the returned id reaches the caller. Identical requests are
// never deduplicated; each call spawns exactly one task.
func (d *Dispatcher) Dispatch(req Request) (string, error) {
	if err := req.Validate(); err != nil {
		observability.RecordDispatch(d.node, "rejected")
		return "", err
	}

	command := BuildCommand(req)
	id := d.allocateID(req.DeviceID)
	if err := d.store.Create(id); err != nil {
		observability.RecordDispatch(d.node, "rejected")
		return "", err
	}

	d.wg.Add(1)
	go d.run(id, req.DeviceID, command)

	observability.RecordDispatch(d.node, "accepted")
	log.Info().
		Str("execution_id", id).
		Str("device_id", req.DeviceID).
		Msg("dispatch_accepted")
	return id, nil
}

// Status returns a snapshot of one execution record without blocking on any
// in-flight task.
func (d *Dispatcher) Status(id string) (Record, error) {
	rec, ok := d.store.Get(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrUnknownExecutionID, id)
	}
	return rec, nil
}

// Drain blocks until every spawned task has completed or ctx expires.
// Intended for shutdown; Dispatch may still be called concurrently, those
// tasks simply join the wait.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the per-execution background task: the only writer of a record
// after its pending creation. The executor owns the per-execution deadline.
func (d *Dispatcher) run(id, deviceID, command string) {
	defer d.wg.Done()
	start := time.Now()

	output, err := d.exec.Execute(context.Background(), deviceID, command)
	if err != nil {
		if cerr := d.store.Complete(id, StatusError, output, err.Error()); cerr != nil {
			log.Error().Str("execution_id", id).Err(cerr).Msg("record_complete_failed")
		}
		observability.RecordExecution(d.node, string(StatusError), time.Since(start))
		log.Warn().
			Str("execution_id", id).
			Str("device_id", deviceID).
			Err(err).
			Msg("execution_failed")
		return
	}

	if cerr := d.store.Complete(id, StatusSuccess, output, ""); cerr != nil {
		log.Error().Str("execution_id", id).Err(cerr).Msg("record_complete_failed")
	}
	observability.RecordExecution(d.node, string(StatusSuccess), time.Since(start))
	log.Info().
		Str("execution_id", id).
		Str("device_id", deviceID).
		Dur("duration", time.Since(start)).
		Msg("execution_complete")
}

// allocateID derives a process-unique execution id from the device plus a
// strictly monotonic nanosecond component, so rapid dispatches never collide.
func (d *Dispatcher) allocateID(deviceID string) string {
	for {
		last := d.lastTS.Load()
		ts := time.Now().UnixNano()
		if ts <= last {
			ts = last + 1
		}
		if d.lastTS.CompareAndSwap(last, ts) {
			return fmt.Sprintf("exec-%s-%d", deviceID, ts)
		}
	}
}
