package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/engine"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/svc"
	"github.com/zeptools/gw-docs/variant"
)

// Runner does the work. *engine.Engine is one.
type Runner interface {
	Generate(ctx context.Context, v variant.Variant, rec record.Record) (*engine.Generated, error)
	Sign(ctx context.Context, v variant.Variant, identifier string, image []byte, opts engine.SignOptions) (*engine.Stamped, error)
}

// WorkerConf - the "worker" section of config/.core.json
type WorkerConf struct {
	Concurrency int `json:"concurrency"` // default 1
	PollSec     int `json:"poll_sec"`    // blocking pop timeout, default 5
	JobTTLSec   int `json:"job_ttl_sec"` // finished jobs are kept this long, default 1 day
}

func (c WorkerConf) JobTTL() time.Duration {
	return time.Duration(c.JobTTLSec) * time.Second
}

// Worker drains the queue with a fixed number of goroutines.
type Worker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	state       int
	done        chan error
	wg          sync.WaitGroup
	queue       *Queue
	run         Runner
	concurrency int
	poll        time.Duration
	log         zerolog.Logger
}

// Ensure Worker implements svc.Service
var _ svc.Service = (*Worker)(nil)

func NewWorker(parentCtx context.Context, q *Queue, run Runner, c WorkerConf, log zerolog.Logger) *Worker {
	ctx, cancel := context.WithCancel(parentCtx)
	w := &Worker{
		ctx:         ctx,
		cancel:      cancel,
		state:       svc.StateREADY,
		done:        make(chan error, 1),
		queue:       q,
		run:         run,
		concurrency: c.Concurrency,
		poll:        time.Duration(c.PollSec) * time.Second,
		log:         log.With().Str("service", "worker").Logger(),
	}
	if w.concurrency <= 0 {
		w.concurrency = 1
	}
	if w.poll <= 0 {
		w.poll = 5 * time.Second
	}
	return w
}

func (w *Worker) Name() string {
	return "JobWorker"
}

func (w *Worker) Start() error {
	w.state = svc.StateRUNNING
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.loop()
	}
	go func() {
		w.wg.Wait()
		w.done <- nil
	}()
	w.log.Info().Int("concurrency", w.concurrency).Msg("[INFO] worker started")
	return nil
}

func (w *Worker) Stop() {
	w.cancel()
	w.state = svc.StateSTOPPED
	w.log.Info().Msg("[INFO] worker stopping")
}

func (w *Worker) Done() <-chan error {
	return w.done
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for w.ctx.Err() == nil {
		if _, err := w.Step(w.ctx); err != nil && w.ctx.Err() == nil {
			w.log.Error().Err(err).Msg("[ERROR] queue")
			// the key-value store is unreachable; back off for one poll period
			select {
			case <-w.ctx.Done():
			case <-time.After(w.poll):
			}
		}
	}
}

// Step runs at most one job. Reports whether one ran. A failing job is not
// an error of Step: its error is recorded on the job.
func (w *Worker) Step(ctx context.Context) (bool, error) {
	j, ok, err := w.queue.next(ctx, w.poll)
	if err != nil || !ok {
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		return false, err
	}
	log := w.log.With().Str("job", j.ID).Str("kind", string(j.Kind)).
		Str("variant", string(j.Variant)).Str("identifier", j.Identifier).Logger()

	var path, remote string
	var jobErr error
	switch j.Kind {
	case KindRender:
		var g *engine.Generated
		if g, jobErr = w.run.Generate(ctx, j.Variant, j.Record); jobErr == nil {
			path, remote = g.Path, g.Remote
		}
	case KindSign:
		var s *engine.Stamped
		if s, jobErr = w.run.Sign(ctx, j.Variant, j.Identifier, j.Image, j.Sign); jobErr == nil {
			path, remote = s.Path, s.Remote
		}
	}
	if jobErr != nil {
		log.Warn().Err(jobErr).Msg("[WARN] job failed")
	} else {
		log.Info().Str("path", path).Msg("[INFO] job done")
	}
	// record the outcome even when the worker is shutting down
	return true, w.queue.finish(context.WithoutCancel(ctx), j, path, remote, jobErr)
}
