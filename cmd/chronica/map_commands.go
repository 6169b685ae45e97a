package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chronica-app/chronica/internal/client"
)

func newMapCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "map",
		Short: "Show the entries that carry coordinates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			entries, err := api.MapEntries(cmd.Context())
			if err != nil {
				return err
			}

			view := client.NewMapView(entries)
			markers := view.Markers()
			if len(markers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no located entries")
				return nil
			}

			rows := make([][]string, 0, len(markers))
			for _, m := range markers {
				rows = append(rows, []string{
					m.EntryID, m.Date, m.Title, m.Location,
					fmt.Sprintf("%.4f, %.4f", m.Latitude, m.Longitude),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"ID", "DATE", "TITLE", "LOCATION", "COORDINATES"}, rows))

			vp := view.Viewport()
			switch {
			case vp.Fit != nil:
				fmt.Fprintf(out, "viewport: fit %.4f,%.4f to %.4f,%.4f\n",
					vp.Fit.MinLat, vp.Fit.MinLng, vp.Fit.MaxLat, vp.Fit.MaxLng)
			case vp.Center != nil:
				fmt.Fprintf(out, "viewport: center %.4f,%.4f zoom %d\n",
					vp.Center.Latitude, vp.Center.Longitude, vp.Zoom)
			}
			return nil
		},
	}
}

func newLocateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <lat> <lng>",
		Short: "Resolve coordinates into a place label",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lng, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}

			api, err := ctx.api()
			if err != nil {
				return err
			}
			label, err := api.Locate(cmd.Context(), lat, lng)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	}
}
