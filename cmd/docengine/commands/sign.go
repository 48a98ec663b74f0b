package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/zeptools/gw-docs/engine"
	"github.com/zeptools/gw-docs/variant"
)

type locateOpts struct {
	variant    string
	identifier string
	word       string
	page       int
}

func newLocateCmd(root *rootOpts) *cobra.Command {
	opts := &locateOpts{}
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Report every occurrence of a word in a stored document",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := variant.Parse(opts.variant)
			if err != nil {
				return err
			}
			core, err := boot(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer core.ResourceCleanUp()
			locs, err := core.Engine.Locate(cmd.Context(), v, opts.identifier, opts.word, opts.page)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), locs)
		},
	}
	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "document variant (required)")
	cmd.Flags().StringVar(&opts.identifier, "id", "", "document identifier (required)")
	cmd.Flags().StringVarP(&opts.word, "word", "w", "", "word or phrase to find (required)")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 0, "1-based page, 0 = last page")
	_ = cmd.MarkFlagRequired("variant")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("word")
	return cmd
}

type signOpts struct {
	variant       string
	identifier    string
	imagePath     string
	keyword       string
	page          int
	requireUnique bool
	opacity       float64
}

func newSignCmd(root *rootOpts) *cobra.Command {
	opts := &signOpts{}
	cmd := &cobra.Command{
		Use:     "sign",
		Aliases: []string{"stamp"},
		Short:   "Stamp a stored document at its keyword",
		Long: `Stamp the signature image over the variant's keyword (or --keyword) on the
last page (or --page) of a stored document. The image defaults to the one
named in .stamp.json.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := variant.Parse(opts.variant)
			if err != nil {
				return err
			}
			var image []byte
			if opts.imagePath != "" {
				if image, err = os.ReadFile(opts.imagePath); err != nil {
					return err
				}
			}
			core, err := boot(cmd.Context(), root)
			if err != nil {
				return err
			}
			defer core.ResourceCleanUp()
			st, err := core.Engine.Sign(cmd.Context(), v, opts.identifier, image, engine.SignOptions{
				Keyword:       opts.keyword,
				Page:          opts.page,
				RequireUnique: opts.requireUnique,
				Opacity:       opts.opacity,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
	cmd.Flags().StringVarP(&opts.variant, "variant", "V", "", "document variant (required)")
	cmd.Flags().StringVar(&opts.identifier, "id", "", "document identifier (required)")
	cmd.Flags().StringVarP(&opts.imagePath, "image", "i", "", "PNG or JPEG stamp image")
	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "anchor word, default per variant")
	cmd.Flags().IntVarP(&opts.page, "page", "p", 0, "1-based page, 0 = last page")
	cmd.Flags().BoolVar(&opts.requireUnique, "require-unique", false, "fail when the keyword occurs more than once")
	cmd.Flags().Float64Var(&opts.opacity, "opacity", 0, "stamp opacity, 0 = configured default")
	_ = cmd.MarkFlagRequired("variant")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
