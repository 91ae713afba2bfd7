package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ssargent/warcpack/pkg/cdxj"
	"github.com/ssargent/warcpack/pkg/store"
)

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup <warc-file> <url>",
	Short: "Look up captures of a URL in a WARC file",
	Long: `Lookup indexes a WARC capture file, loads the index into an
ephemeral store, and prints every entry whose canonical key starts
with the key of the given URL. Pass a raw key prefix with --key to
query a whole host, e.g. "org,example)".

Example:
  warcpack lookup capture.warc.gz http://example.org/page`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		prefix := args[1]
		if raw, _ := cmd.Flags().GetBool("key"); !raw {
			key, err := cdxj.Key(args[1])
			if err != nil {
				return err
			}
			prefix = key
		}

		ia, err := indexCapture(cmd, args[0])
		if err != nil {
			return err
		}

		dir, err := os.MkdirTemp("", "warcpack-lookup")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		s, err := store.Open(dir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.Load(ia.Entries); err != nil {
			return err
		}
		entries, err := s.Scan(prefix)
		if err != nil {
			return err
		}

		log.Debug("scanned index", "prefix", prefix, "matches", len(entries))
		for _, entry := range entries {
			fmt.Printf("%s %s %s %d %d+%d\n",
				entry.Timestamp, entry.Payload.URL, entry.Payload.MIME,
				entry.Payload.Status, entry.Payload.Offset, entry.Payload.Length)
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().Bool("key", false, "Treat the argument as a raw canonical key prefix")
	rootCmd.AddCommand(lookupCmd)
}
