package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/zeptools/gw-docs/uds"
)

// AdminCommands exposes the queue on the admin socket.
func AdminCommands(q *Queue) map[string]uds.CmdHnd {
	return map[string]uds.CmdHnd{
		"pending": {
			Desc: "list queued job ids, oldest first",
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				ids, err := q.Pending(ctx)
				if err != nil {
					return err
				}
				for _, id := range ids {
					_, _ = fmt.Fprintln(w, id)
				}
				_, err = fmt.Fprintf(w, "%d pending\n", len(ids))
				return err
			},
		},
		"status": {
			Desc:  "show the state of a job",
			Usage: "status <job-id>",
			Args:  1,
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				info, err := q.Status(ctx, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			},
		},
		"cancel": {
			Desc:  "remove a queued job",
			Usage: "cancel <job-id>",
			Args:  1,
			Fn: func(ctx context.Context, args []string, w io.Writer) error {
				ok, err := q.Cancel(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					_, err = fmt.Fprintln(w, "not queued")
					return err
				}
				_, err = fmt.Fprintln(w, "canceled")
				return err
			},
		},
	}
}
