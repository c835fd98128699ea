package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check connectivity to the search engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		service, _, err := newService()
		if err != nil {
			return err
		}

		if err := service.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("search engine unreachable: %w", err)
		}

		fmt.Println("search engine: ok")
		return nil
	},
}
