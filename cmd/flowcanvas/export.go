package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowcanvas/internal/presentation/png"
	loamAdapter "github.com/aretw0/flowcanvas/pkg/adapters/loam"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the flow as a PNG image or a Markdown flow directory",
	Long: `png draws the canvas as it is laid out to --out ("-" for stdout).
markdown writes one document per question to the --out directory; the result
can be read back with "flowcanvas import".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		s, err := openSession(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		switch format {
		case "png":
			if out == "" {
				out = "flow.png"
			}
			nodes, conns := s.engine.Graph().Snapshot()
			if out == "-" {
				return png.Write(cmd.OutOrStdout(), nodes, conns)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := png.Write(f, nodes, conns); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		case "markdown", "md":
			if out == "" {
				out = "flow"
			}
			records, err := s.engine.Manager().Controller().Questions(cmd.Context())
			if err != nil {
				return err
			}
			loader, err := loamAdapter.Open(out, false, loamAdapter.WithLogger(s.logger))
			if err != nil {
				return err
			}
			if err := loader.Export(cmd.Context(), records); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown format %q: supported png, markdown", format)
		}

		s.logger.Info("flow exported", "format", format, "out", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", "png", "Output format: png or markdown")
	exportCmd.Flags().StringP("out", "o", "", "Output file (png) or directory (markdown)")
}
