package cmd

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ssargent/warcpack/pkg/wacz"
)

// packageCmd represents the package command
var packageCmd = &cobra.Command{
	Use:   "package <warc-file>",
	Short: "Package a WARC capture into a WACZ archive",
	Long: `Package indexes a WARC capture file and assembles the complete
WACZ container: datapackage manifest, capture copy, CDXJ index and
pages listing. The container is written to a temporary file and
renamed into place, so a failed run leaves no partial archive.

Example:
  warcpack package capture.warc.gz -o capture.wacz`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ia, err := indexCapture(cmd, args[0])
		if err != nil {
			return err
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			base := strings.TrimSuffix(filepath.Base(args[0]), ".gz")
			base = strings.TrimSuffix(base, ".warc")
			output = filepath.Join(configFromContext(cmd.Context()).Output, base+".wacz")
		}
		if err := wacz.WriteFile(ia, output); err != nil {
			return err
		}

		log.Info("packaged capture",
			"records", len(ia.Entries),
			"pages", len(ia.Pages),
			"archive", output)
		return nil
	},
}

func init() {
	packageCmd.Flags().StringP("output", "o", "", "Path for the WACZ archive")
	rootCmd.AddCommand(packageCmd)
}
