package uds

import (
	"context"
	"fmt"
	"io"
)

// CmdHnd - one admin command. Args is the exact number of arguments the
// command takes; AnyArgs disables the check.
type CmdHnd struct {
	Desc  string
	Usage string
	Args  int
	Fn    func(ctx context.Context, args []string, w io.Writer) error
}

const AnyArgs = -1

func (h CmdHnd) call(ctx context.Context, args []string, w io.Writer) error {
	if h.Args != AnyArgs && len(args) != h.Args {
		return fmt.Errorf("expected %d argument(s), got %d", h.Args, len(args))
	}
	return h.Fn(ctx, args, w)
}
