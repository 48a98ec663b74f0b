// Package jobs queues render and sign requests in the key-value database and
// drains them with a Worker. A job is a hash at {prefix}job:{id}; the queue is
// a list of ids at {prefix}queue.
package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zeptools/gw-docs/engine"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

type Kind string

const (
	KindRender Kind = "render"
	KindSign   Kind = "sign"
)

type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusDone     Status = "done"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Job - one unit of work. Record is used by render jobs, Sign by sign jobs.
type Job struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	Variant    variant.Variant    `json:"variant"`
	Identifier string             `json:"identifier"`
	Record     record.Record      `json:"record,omitempty"`
	Sign       engine.SignOptions `json:"sign"`
	// Image overrides the configured stamp image of a sign job.
	Image []byte `json:"image,omitempty"`
}

func (j *Job) validate() error {
	switch j.Kind {
	case KindRender:
		if j.Record == nil {
			return fmt.Errorf("render job without a record")
		}
		if j.Identifier == "" {
			j.Identifier = j.Record.StringOr("doc_no", "")
		}
	case KindSign:
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
	if _, err := variant.Lookup(j.Variant); err != nil {
		return err
	}
	if j.Identifier == "" {
		return fmt.Errorf("job without an identifier")
	}
	return nil
}

// dedupeKey - one pending job per kind and document
func (j *Job) dedupeKey() string {
	return "pending:" + string(j.Kind) + ":" + string(j.Variant) + ":" + j.Identifier
}

// Info - the stored state of a job
type Info struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Variant    variant.Variant `json:"variant"`
	Identifier string          `json:"identifier"`
	Status     Status          `json:"status"`
	Path       string          `json:"path,omitempty"`
	Remote     string          `json:"remote,omitempty"`
	Error      string          `json:"error,omitempty"`
	Enqueued   time.Time       `json:"enqueued"`
	Updated    time.Time       `json:"updated"`
}

func infoFromFields(id string, f map[string]string) Info {
	info := Info{
		ID:         id,
		Kind:       Kind(f["kind"]),
		Variant:    variant.Variant(f["variant"]),
		Identifier: f["identifier"],
		Status:     Status(f["status"]),
		Path:       f["path"],
		Remote:     f["remote"],
		Error:      f["error"],
	}
	info.Enqueued, _ = time.Parse(time.RFC3339Nano, f["enqueued"])
	info.Updated, _ = time.Parse(time.RFC3339Nano, f["updated"])
	return info
}

// decodePayload keeps numbers as json.Number so amounts keep their digits
func decodePayload(f map[string]string) (*Job, error) {
	var j Job
	dec := json.NewDecoder(strings.NewReader(f["payload"]))
	dec.UseNumber()
	if err := dec.Decode(&j); err != nil {
		return nil, fmt.Errorf("decode job payload: %w", err)
	}
	return &j, nil
}
