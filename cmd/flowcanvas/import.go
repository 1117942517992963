package main

import (
	"fmt"

	"github.com/aretw0/flowcanvas/internal/cli"
	loamAdapter "github.com/aretw0/flowcanvas/pkg/adapters/loam"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Create the questions of a Markdown flow directory in the store",
	Long: `Reads every document of dir as a question and creates it under the tenant.
References between documents are rewritten to the new question ids; references
to missing documents are dropped. With --layout the imported flow is auto laid out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Tenant == "" {
			return fmt.Errorf("%w: --tenant is required", domain.ErrMissingContext)
		}

		loader, err := loamAdapter.Open(args[0], true, loamAdapter.WithLogger(logger))
		if err != nil {
			return err
		}
		qs, err := loader.Questions(cmd.Context())
		if err != nil {
			return err
		}

		b, err := cli.OpenStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		res, err := loader.Import(cmd.Context(), b.Store, cfg.Tenant, qs)
		_ = b.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d questions (%d references dropped)\n", len(res.IDs), res.Dropped)

		if relayout, _ := cmd.Flags().GetBool("layout"); !relayout {
			return nil
		}
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.engine.Editor().AutoLayout(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("layout", true, "Auto layout the flow after import")
}
