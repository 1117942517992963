package main

import (
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Add or remove nodes",
}

var nodeAddCmd = &cobra.Command{
	Use:       "add <kind>",
	Short:     "Create a node, optionally linked under a parent",
	Long:      `kind is one of message, multiple-choice, data-collection or end.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"message", "multiple-choice", "data-collection", "end"},
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")

		var pos *domain.Position
		if cmd.Flags().Changed("x") || cmd.Flags().Changed("y") {
			x, _ := cmd.Flags().GetFloat64("x")
			y, _ := cmd.Flags().GetFloat64("y")
			pos = &domain.Position{X: x, Y: y}
		}

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		mgr := s.engine.Manager()
		n, err := mgr.Create(cmd.Context(), domain.NodeKind(args[0]), pos, parent)
		if err != nil {
			return err
		}
		mgr.Flush()
		if latest, ok := mgr.Graph().Node(n.ID); ok {
			n = latest
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t(%.0f, %.0f)\n", n.ID, n.Kind, n.Position.X, n.Position.Y)
		return nil
	},
}

var nodeRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a node and its connections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.engine.Editor().Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	nodeCmd.AddCommand(nodeAddCmd, nodeRmCmd)

	nodeAddCmd.Flags().String("parent", "", "Node the new node is linked under")
	nodeAddCmd.Flags().Float64("x", 0, "Canvas x")
	nodeAddCmd.Flags().Float64("y", 0, "Canvas y")
}
