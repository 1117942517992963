package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [node-id]",
	Short: "Show the flow as a table, or one node in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		width := tui.Width(os.Stdout)
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(out)
		}

		if len(args) == 0 {
			fmt.Fprintln(out, tui.Status(s.engine.Editor().Status()))
			fmt.Fprintln(out, tui.NodeTable(s.engine.Graph().Nodes(), width))
			return nil
		}

		n, ok := s.engine.Graph().Node(args[0])
		if !ok {
			return fmt.Errorf("node %s not found", args[0])
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		text, err := render(tui.NodeMarkdown(n))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("banner", false, "Print the banner first")
}
