package main

import (
	"fmt"

	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Auto layout the flow and store the new positions",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.engine.Editor().AutoLayout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tui.Status(s.engine.Editor().Status()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(layoutCmd)
}
