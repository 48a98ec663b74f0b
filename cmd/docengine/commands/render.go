package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zeptools/gw-docs/amount"
	"github.com/zeptools/gw-docs/internal/fixtures"
	"github.com/zeptools/gw-docs/record"
	"github.com/zeptools/gw-docs/variant"
)

type renderOpts struct {
	variant    string
	recordPath string
	identifier string
	sample     bool
}

func newRenderCmd(root *rootOpts) *cobra.Command {
	opts := &renderOpts{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one document to storage",
		Long: `Render one document from a JSON record (--record), from the configured
SQL source (--id) or from the built-in sample (--sample). The document is
written under the storage root and delivered when .transfer.json exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "document variant, e.g. Manual (required)")
	cmd.Flags().StringVar(&opts.recordPath, "record", "", "JSON record file, - for stdin")
	cmd.Flags().StringVar(&opts.identifier, "id", "", "load the record from the SQL source")
	cmd.Flags().BoolVar(&opts.sample, "sample", false, "render the built-in sample record")
	_ = cmd.MarkFlagRequired("variant")
	cmd.MarkFlagsMutuallyExclusive("record", "id", "sample")
	cmd.MarkFlagsOneRequired("record", "id", "sample")
	return cmd
}

func runRender(cmd *cobra.Command, root *rootOpts, opts *renderOpts) error {
	v, err := variant.Parse(opts.variant)
	if err != nil {
		return err
	}
	core, err := boot(cmd.Context(), root)
	if err != nil {
		return err
	}
	defer core.ResourceCleanUp()

	var rec record.Record
	switch {
	case opts.sample:
		rec = fixtures.Record(v)
	case opts.recordPath != "":
		if rec, err = readRecord(cmd, opts.recordPath); err != nil {
			return err
		}
	default:
		if err = core.PrepareSQLDatabases(); err != nil {
			return err
		}
		if err = core.PrepareSources(); err != nil {
			return err
		}
		if core.Source == nil {
			return fmt.Errorf("--id needs config/.sources.json")
		}
		if rec, err = core.Source.Load(cmd.Context(), v, opts.identifier); err != nil {
			return err
		}
	}

	gen, err := core.Engine.Generate(cmd.Context(), v, rec)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), struct {
		Variant    variant.Variant `json:"variant"`
		Identifier string          `json:"identifier"`
		Path       string          `json:"path"`
		Remote     string          `json:"remote,omitempty"`
		Pages      int             `json:"pages"`
		Total      string          `json:"total"`
	}{gen.Variant, gen.Identifier, gen.Path, gen.Remote, gen.Pages, gen.Derived.Total.StringFixed(amount.Places)})
}
