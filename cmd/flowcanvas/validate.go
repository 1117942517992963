package main

import (
	"fmt"

	"github.com/aretw0/flowcanvas/internal/validator"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir|file.json]",
	Short: "Check the flow for consistency",
	Long: `Crawls the flow from the first question and reports dead links or
unreachable questions. Without arguments the tenant's stored flow is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var records []domain.Record
		if len(args) == 1 {
			src, err := openSource(args[0])
			if err != nil {
				return err
			}
			if records, err = src.Records(cmd.Context()); err != nil {
				return err
			}
		} else {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if records, err = s.engine.Manager().Controller().Questions(cmd.Context()); err != nil {
				return err
			}
		}

		if err := validator.ValidateFlow(records); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Flow is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
