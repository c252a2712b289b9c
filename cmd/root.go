package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speciesid",
		Short: "Field species identification from photos",
		Long: `Speciesid manages a small collection of field photos, persists them with
metadata to app storage and a gallery album, and submits them to a remote
species-identification service, reporting ranked candidates with localized
names and reference links.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIdentifyCmd())

	return cmd
}
