package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/logging"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a batch file (YAML or JSON) into a zip of certificates",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		if in == "" {
			return fmt.Errorf("--in required")
		}

		raw, err := readInput(cmd, in)
		if err != nil {
			return err
		}
		payload, err := batchJSON(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		b, err := batch.Parse(payload, cfg.Certificates.DefaultZipName)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}

		data, err := newArchiver().BuildArchive(cmd.Context(), b.Requests)
		if err != nil {
			return err
		}
		if out == "" {
			out = b.Filename()
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return err
		}
		logging.Info("archive written", "path", out, "bytes", len(data))
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// batchJSON decodes a YAML document (JSON is valid YAML) and re-encodes it
// as JSON for batch.Parse.
func batchJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("batch file must use string keys: %w", err)
	}
	return b, nil
}

func init() {
	renderCmd.Flags().String("in", "", "batch file path, or - for stdin")
	renderCmd.Flags().String("out", "", "output zip path (default <zip_name>.zip)")
}
