package commands

import (
	"fmt"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zeptools/gw-docs/internal/fixtures"
	"github.com/zeptools/gw-docs/sec"
	"github.com/zeptools/gw-docs/variant"
	"github.com/zeptools/gw-docs/words"
)

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample <variant>",
		Short: "Print a complete sample record for a variant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := variant.Parse(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), fixtures.Record(v))
		},
	}
}

func newWordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "words <amount>",
		Short: "Spell an amount in words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(args[0])
			if err != nil {
				return err
			}
			s, err := words.ToWords(d)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
}

func newKeygenCmd(opts *rootOpts) *cobra.Command {
	var (
		dir  string
		file string
		bits int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RS256 key pair for download tokens",
		Long: `keygen writes {dir}/{file} as the signing key and {dir}/{kid}_public.pem
for the JWKS endpoint, then prints the kid to put in config/.tokens.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(opts.appRoot, dir)
			}
			kid, err := sec.GenerateSigningKey(dir, file, bits)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"kid":              kid,
				"private_key_file": filepath.Join(dir, file),
				"public_key_file":  filepath.Join(dir, sec.PublicKeyFile(kid)),
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "config/keys", "output directory, relative to the app root")
	cmd.Flags().StringVar(&file, "file", "signing.pem", "signing key file name")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA key size")
	return cmd
}
