package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ssargent/warcpack/pkg/wacz"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index <warc-file>",
	Short: "Index a WARC capture and write its CDXJ index",
	Long: `Index performs a single pass over a WARC capture file and writes
the resulting CDXJ index next to it (or to --output).

Example:
  warcpack index capture.warc.gz`,
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
			output = filepath.Join(configFromContext(cmd.Context()).Output, base+".cdxj")
		}
		if err := os.WriteFile(output, ia.IndexBytes, 0644); err != nil {
			return err
		}

		log.Info("indexed capture",
			"records", len(ia.Entries),
			"pages", len(ia.Pages),
			"index", output)
		return nil
	},
}

// indexCapture runs the indexing pass over a capture file.
func indexCapture(cmd *cobra.Command, path string) (*wacz.IndexedArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := wacz.Options{
		Filename: filepath.Base(path),
		Software: configFromContext(cmd.Context()).Software,
	}
	log.Debug("indexing capture", "file", path)
	return wacz.Index(f, opts)
}

func init() {
	indexCmd.Flags().StringP("output", "o", "", "Path for the CDXJ index")
	rootCmd.AddCommand(indexCmd)
}
