package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// PhaseResult carries everything a completed phase produced: the collected
// samples (empty for a warmup phase), whether cancellation fired, and the
// phase boundaries used for rate calculations.
type PhaseResult struct {
	Samples      []metrics.Sample
	Cancelled    bool
	StartedAtMs  int64
	FinishedAtMs int64
}

// runPhase executes one bounded phase with a fixed pool of workers.
//
// All workers share an atomic cancelled flag and, for iteration-bounded
// workloads, a single atomic ticket counter: each worker draws a ticket and
// stops once its draw reaches the target, so the pool never exceeds the
// configured count (it may fall slightly short when several workers draw the
// final tickets concurrently). Duration-bounded workloads share a deadline
// checked before every iteration.
//
// A panicking worker aborts the whole phase with an error; request-level
// failures never do, they are data in the sample stream.
func runPhase(client *http.Client, template *RequestTemplate, workload PhaseWorkload, concurrency int, collectSamples bool, saveBodies SaveBodies, cancelCh <-chan struct{}) (*PhaseResult, error) {
	workerCount := concurrency
	if workerCount < 1 {
		workerCount = 1
	}

	startedAtMs := nowMs()
	var cancelled atomic.Bool
	var ticket atomic.Int64
	var deadline time.Time
	if !workload.IsIterations() {
		deadline = time.Now().Add(workload.Duration)
	}

	// The phase context is cancelled as soon as the broadcast fires, so
	// in-flight sends and body reads unblock without polling.
	phaseCtx, stopPhase := context.WithCancel(context.Background())
	defer stopPhase()

	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-cancelCh:
			stopPhase()
		case <-phaseCtx.Done():
		}
	}()

	sampleCh := make(chan metrics.Sample, workerCount)
	var samples []metrics.Sample
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for sample := range sampleCh {
			samples = append(samples, sample)
		}
	}()

	var wg sync.WaitGroup
	var workerErr error
	var workerErrMu sync.Mutex

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					workerErrMu.Lock()
					if workerErr == nil {
						workerErr = fmt.Errorf("benchmark worker crashed: %v", r)
					}
					workerErrMu.Unlock()
					cancelled.Store(true)
					stopPhase()
				}
			}()

			for {
				if cancelled.Load() || cancelFired(cancelCh) {
					cancelled.Store(true)
					return
				}

				if workload.IsIterations() {
					if ticket.Add(1)-1 >= workload.Iterations {
						return
					}
				} else if !time.Now().Before(deadline) {
					return
				}

				sample := executeSingleRequest(phaseCtx, client, template, saveBodies, cancelCh)

				if sample.Cancelled {
					cancelled.Store(true)
					return
				}

				if collectSamples {
					sampleCh <- sample
				}
			}
		}()
	}

	wg.Wait()
	close(sampleCh)
	<-collectorDone
	stopPhase()
	<-watcherDone

	if workerErr != nil {
		return nil, workerErr
	}

	return &PhaseResult{
		Samples:      samples,
		Cancelled:    cancelled.Load(),
		StartedAtMs:  startedAtMs,
		FinishedAtMs: nowMs(),
	}, nil
}
