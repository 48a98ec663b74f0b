package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeptools/gw-docs/db/kvdb"
)

var (
	ErrDuplicate   = errors.New("jobs: a job for this document is already pending")
	ErrJobNotFound = errors.New("jobs: job not found")
)

const (
	queueKey   = "queue"
	defaultTTL = 24 * time.Hour
)

// Queue is safe for concurrent use; every operation is a key-value call.
type Queue struct {
	kv  kvdb.Client
	ttl time.Duration
	now func() time.Time
}

// NewQueue - finished jobs are kept for ttl, default 24h.
func NewQueue(kv kvdb.Client, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Queue{kv: kv, ttl: ttl, now: time.Now}
}

func jobKey(id string) string {
	return "job:" + id
}

func (q *Queue) stamp() string {
	return q.now().UTC().Format(time.RFC3339Nano)
}

// Enqueue stores the job and appends it to the queue. A second job for the
// same kind and document is ErrDuplicate until the first one finishes.
func (q *Queue) Enqueue(ctx context.Context, j Job) (string, error) {
	if err := j.validate(); err != nil {
		return "", err
	}
	j.ID = uuid.NewString()
	payload, err := json.Marshal(j)
	if err != nil {
		return "", err
	}
	ok, err := q.kv.SetNX(ctx, j.dedupeKey(), j.ID, q.ttl)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrDuplicate
	}
	now := q.stamp()
	err = q.kv.SetFields(ctx, jobKey(j.ID), map[string]any{
		"kind":       string(j.Kind),
		"variant":    string(j.Variant),
		"identifier": j.Identifier,
		"status":     string(StatusQueued),
		"payload":    string(payload),
		"enqueued":   now,
		"updated":    now,
	})
	if err == nil {
		err = q.kv.Push(ctx, queueKey, j.ID)
	}
	if err != nil {
		_, _ = q.kv.Delete(ctx, j.dedupeKey(), jobKey(j.ID))
		return "", fmt.Errorf("enqueue %s %s: %w", j.Kind, j.Identifier, err)
	}
	return j.ID, nil
}

func (q *Queue) Status(ctx context.Context, id string) (Info, error) {
	f, err := q.kv.GetAllFields(ctx, jobKey(id))
	if err != nil {
		return Info{}, err
	}
	if len(f) == 0 {
		return Info{}, ErrJobNotFound
	}
	return infoFromFields(id, f), nil
}

// Pending returns the queued job ids, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]string, error) {
	return q.kv.Range(ctx, queueKey, 0, -1)
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.kv.Len(ctx, queueKey)
}

// Cancel removes a queued job. Reports false when it is no longer queued.
func (q *Queue) Cancel(ctx context.Context, id string) (bool, error) {
	n, err := q.kv.Remove(ctx, queueKey, 0, id)
	if err != nil || n == 0 {
		return false, err
	}
	f, err := q.kv.GetAllFields(ctx, jobKey(id))
	if err != nil {
		return true, err
	}
	if j, err := decodePayload(f); err == nil {
		_, _ = q.kv.Delete(ctx, j.dedupeKey())
	}
	return true, q.settle(ctx, id, map[string]any{"status": string(StatusCanceled)})
}

// next blocks up to wait for a queued job. A popped id whose hash is gone
// (expired) is skipped.
func (q *Queue) next(ctx context.Context, wait time.Duration) (*Job, bool, error) {
	id, ok, err := q.kv.BlockingPop(ctx, wait, queueKey)
	if err != nil || !ok {
		return nil, false, err
	}
	f, err := q.kv.GetAllFields(ctx, jobKey(id))
	if err != nil {
		return nil, false, err
	}
	if len(f) == 0 {
		return nil, false, nil
	}
	j, err := decodePayload(f)
	if err != nil {
		return nil, false, q.settle(ctx, id, map[string]any{"status": string(StatusFailed), "error": err.Error()})
	}
	err = q.kv.SetFields(ctx, jobKey(id), map[string]any{"status": string(StatusRunning), "updated": q.stamp()})
	return j, true, err
}

// finish records the outcome and releases the document for new jobs.
func (q *Queue) finish(ctx context.Context, j *Job, path string, remote string, jobErr error) error {
	fields := map[string]any{"status": string(StatusDone), "path": path, "remote": remote}
	if jobErr != nil {
		fields = map[string]any{"status": string(StatusFailed), "error": jobErr.Error()}
	}
	if _, err := q.kv.Delete(ctx, j.dedupeKey()); err != nil {
		return err
	}
	return q.settle(ctx, j.ID, fields)
}

// settle writes final fields and lets the job hash expire
func (q *Queue) settle(ctx context.Context, id string, fields map[string]any) error {
	fields["updated"] = q.stamp()
	// the payload may carry a whole record; drop it once settled
	fields["payload"] = ""
	if err := q.kv.SetFields(ctx, jobKey(id), fields); err != nil {
		return err
	}
	_, err := q.kv.Expire(ctx, jobKey(id), q.ttl)
	return err
}
