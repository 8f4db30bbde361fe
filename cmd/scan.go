package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [folder]",
	Short: "Scan a photo folder and print the enriched photo list",
	Long: `Scan a folder for image files and print the photo records as JSON,
including EXIF capture dates and reverse-geocoded locations.

Without an argument the configured photos folder is scanned. Geocoding
results are written to the shared disk cache, so a scan also warms the
cache the server uses.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}

	folder := app.config.Load().PhotosFolder
	if len(args) > 0 {
		folder = args[0]
	}

	records := app.scanner.Scan(cmd.Context(), folder)

	out, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal photo list: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
