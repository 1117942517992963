package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowcanvas/internal/presentation/graph"
	loamAdapter "github.com/aretw0/flowcanvas/pkg/adapters/loam"
	"github.com/aretw0/flowcanvas/pkg/adapters/memory"
	"github.com/aretw0/flowcanvas/pkg/domain"
	flowgraph "github.com/aretw0/flowcanvas/pkg/graph"
	"github.com/aretw0/flowcanvas/pkg/layout"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [dir|file.json]",
	Short: "Export the flow graph visualization",
	Long: `Outputs a Mermaid diagram (graph TD) of the tenant's flow.
Given a Markdown flow directory, or a JSON dump of the question API, that flow
is drawn instead without touching the store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selected, _ := cmd.Flags().GetString("selected")

		var (
			nodes []domain.Node
			conns []domain.Connection
		)
		if len(args) == 1 {
			src, err := openSource(args[0])
			if err != nil {
				return err
			}
			records, err := src.Records(cmd.Context())
			if err != nil {
				return err
			}
			conns = flowgraph.BuildConnections(records)
			nodes = layout.Apply(flowgraph.BuildNodes(records), conns)
		} else {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			nodes, conns = s.engine.Graph().Snapshot()
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(nodes, conns, &graph.Overlay{Selected: selected}))
		return nil
	},
}

// openSource reads a question API dump when path is a .json file and a
// Markdown flow directory otherwise.
func openSource(path string) (ports.RecordSource, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return memory.NewSourceFromJSON(data)
	}
	return loamAdapter.Open(path, true)
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("selected", "", "Node id to highlight")
}
