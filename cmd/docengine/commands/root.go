// Package commands is the docengine CLI: one-shot render, locate and sign
// commands plus the long-running serve and worker modes.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zeptools/gw-docs/conf"
	"github.com/zeptools/gw-docs/record"
)

type rootOpts struct {
	appRoot string
}

// NewRootCmd builds a fresh command tree; flags hold no state between trees.
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:   "docengine",
		Short: "Financial document engine",
		Long: `docengine renders invoices, receipts and charge references to PDF,
locates words in rendered documents and stamps a signature image over them.
Configuration is read from {root}/config; see .core.json.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.appRoot, "root", "r", ".", "app root holding config/ and .env")

	root.AddCommand(
		newRenderCmd(opts),
		newLocateCmd(opts),
		newSignCmd(opts),
		newServeCmd(opts),
		newWorkerCmd(opts),
		newSampleCmd(),
		newWordsCmd(),
		newKeygenCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// boot loads the core config and prepares the document stack: storage,
// compositor, delivery and the engine.
func boot(ctx context.Context, opts *rootOpts) (*conf.Core, error) {
	appRoot, err := filepath.Abs(opts.appRoot)
	if err != nil {
		return nil, err
	}
	rootCtx, rootCancel := context.WithCancel(ctx)
	core := &conf.Core{}
	steps := []func() error{
		func() error { return core.BaseInit(appRoot, rootCtx, rootCancel) },
		core.PrepareStorage,
		core.PrepareCompositor,
		core.PrepareTransfer,
		core.PrepareEngine,
	}
	for _, step := range steps {
		if err = step(); err != nil {
			rootCancel()
			return nil, err
		}
	}
	return core, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readRecord decodes a JSON record from path, or stdin for "-". Numbers stay
// json.Number.
func readRecord(cmd *cobra.Command, path string) (record.Record, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rec record.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", path, err)
	}
	return rec, nil
}
