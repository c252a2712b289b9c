package cmd

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/7-mb/speciesid/internal/config"
	"github.com/7-mb/speciesid/internal/device"
	"github.com/7-mb/speciesid/internal/i18n"
	"github.com/7-mb/speciesid/internal/notify"
	"github.com/7-mb/speciesid/internal/taxa"
)

func newIdentifyCmd() *cobra.Command {
	var configFile string
	var endpoint string
	var showRaw bool
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "identify [photos...]",
		Short: "Identify species from local photos",
		Long: `Runs the full pipeline once for up to five local photos: persist each with
metadata into app storage and the gallery album, then submit them to the
identification service and print the ranked candidates.`,
		Example: `  # Identify from two photos
  speciesid identify meadow1.jpg meadow2.jpg

  # Use a different service
  speciesid identify --endpoint https://example.org/florid flower.jpg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if endpoint != "" {
				cfg.Endpoint = endpoint
			}
			if cmd.Flags().Changed("lat") {
				cfg.Lat = lat
			}
			if cmd.Flags().Changed("lon") {
				cfg.Lon = lon
			}
			tr := i18n.Bind(cfg.Language)

			notifier := notify.Func(func(title, body string) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", title, body)
			})

			picker := device.NewDirPicker(args, device.LocalTransformer{})
			p := buildPipeline(cfg, picker, notifier)

			if err := p.store.AcquireFromPicker(cmd.Context()); err != nil {
				return err
			}

			// Let every persistence workflow settle before reading the
			// collection for the payload.
			waitCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := p.store.Wait(waitCtx); err != nil {
				return fmt.Errorf("persistence did not settle: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), tr(i18n.KeySelectedCounter, map[string]any{"count": p.store.SelectedCountText()}))
			fmt.Fprintln(cmd.OutOrStdout(), tr(i18n.KeySavedCounter, map[string]any{"count": p.store.SavedCountText()}))

			rows, rawText, err := p.controller.Identify(cmd.Context(), p.store.Snapshot())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), tr(i18n.KeyResultsHeader, nil))
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), tr(i18n.KeyResultsEmpty, nil))
			}
			for _, row := range rows {
				percent := ""
				if !math.IsNaN(row.Percent) {
					percent = fmt.Sprintf("%.1f%%", row.Percent)
				}
				line := fmt.Sprintf("%6s  %s", percent, row.Name)
				if taxon, ok := taxa.Lookup(row.TaxonID); ok {
					if name := taxa.LocalizedName(taxon, cfg.Language); name != "" {
						line += fmt.Sprintf("  (%s)", name)
					}
					if url := taxa.LocalizedURL(taxon, cfg.Language); url != "" {
						line += "  " + url
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}

			if showRaw && rawText != "" {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), rawText)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Config file (default "+config.DefaultFile+")")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Identification service URL (overrides config)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Payload latitude (overrides config)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Payload longitude (overrides config)")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "Print the raw service response")

	return cmd
}
