package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the photo library and Google Photos connection state",
	Long: `Show the active photo source, the Google Photos authorization state
and the age of the cached remote photo list.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := buildApp()
	if err != nil {
		return err
	}

	cfg := app.config.Load()
	st := app.library.Status(cmd.Context())

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Source:\t%s\n", st.Source)
	fmt.Fprintf(w, "Photos folder:\t%s\n", cfg.PhotosFolder)
	fmt.Fprintf(w, "Authenticated:\t%t\n", st.Authenticated)
	fmt.Fprintf(w, "Cached photos:\t%d\n", st.PhotoCount)
	if st.LastUpdated > 0 {
		fmt.Fprintf(w, "Last fetch:\t%s\n", time.Unix(st.LastUpdated, 0).Format(time.RFC1123))
		fmt.Fprintf(w, "Cache age:\t%s\n", (time.Duration(st.AgeSeconds) * time.Second).String())
		if st.Stale {
			fmt.Fprintf(w, "Stale:\tyes (older than %d hours)\n", cfg.GooglePhotosRefreshHours)
		}
	} else {
		fmt.Fprintf(w, "Last fetch:\tnever\n")
	}
	return w.Flush()
}
