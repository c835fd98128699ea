package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	dumpIndex string
	dumpLimit int
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump all documents of an index",
	Long: `Dump every document of an index through a scrolling read and print them
as JSON. --limit 0 is honored literally and dumps nothing; omitting the
flag dumps everything.`,
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVar(&dumpIndex, "index", "", "index to dump (defaults to the concepts index)")
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 0, "maximum number of documents to dump")
}

func runDump(cmd *cobra.Command, args []string) error {
	service, _, err := newService()
	if err != nil {
		return err
	}

	var limit *int
	if cmd.Flags().Changed("limit") {
		limit = &dumpLimit
	}

	results, err := service.DumpConcepts(cmd.Context(), dumpIndex, limit)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
