package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chronica-app/chronica/internal/client"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			entries, err := api.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			entries = client.FilterEntries(entries, filter)
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.ID, e.Date, e.Title, preview(e.Content), e.Location, mediaFlags(&e),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				renderTable([]string{"ID", "DATE", "TITLE", "PREVIEW", "LOCATION", "MEDIA"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "show only entries containing the text")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one entry in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			e, err := api.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n\n", e.Title, e.Date)
			fmt.Fprintln(out, e.Content)
			if e.Location != "" {
				fmt.Fprintf(out, "\nLocation: %s", e.Location)
				if e.HasLocation() {
					fmt.Fprintf(out, " (%.4f, %.4f)", e.Latitude, e.Longitude)
				}
				fmt.Fprintln(out)
			}
			if e.ImageBase64 != "" {
				fmt.Fprintf(out, "Photo: attached (%d chars)\n", len(e.ImageBase64))
			}
			if e.AudioFileName != "" {
				fmt.Fprintf(out, "Audio: %s (chronica audio %s)\n", e.AudioFileName, e.ID)
			}
			return nil
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var n client.NewEntry

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			e, err := api.CreateEntry(cmd.Context(), n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", e.ID, e.Date)
			return nil
		},
	}

	cmd.Flags().StringVarP(&n.Title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&n.Content, "content", "m", "", "entry text")
	cmd.Flags().StringVar(&n.Location, "location", "", "place label (resolved from coordinates when empty)")
	cmd.Flags().Float64Var(&n.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&n.Longitude, "lng", 0, "longitude")
	cmd.Flags().StringVar(&n.ImagePath, "photo", "", "photo file to attach")
	cmd.Flags().StringVar(&n.AudioPath, "audio", "", "audio clip to attach")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var (
		title, content, location string
		lat, lng                 float64
		photo, audio             string
		clearPhoto, clearAudio   bool
	)

	cmd := &cobra.Command{
		Use:   "edit <entry-id>",
		Short: "Edit an entry; unspecified fields keep their stored values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			cur, err := api.GetEntry(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			edit := client.EntryEdit{
				Title:     cur.Title,
				Content:   cur.Content,
				Location:  cur.Location,
				Latitude:  cur.Latitude,
				Longitude: cur.Longitude,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				edit.Title = title
			}
			if flags.Changed("content") {
				edit.Content = content
			}
			if flags.Changed("location") {
				edit.Location = location
			}
			if flags.Changed("lat") {
				edit.Latitude = lat
			}
			if flags.Changed("lng") {
				edit.Longitude = lng
			}
			if photo != "" || clearPhoto {
				edit.ImageChanged = true
				edit.ImagePath = photo
			}
			if audio != "" || clearAudio {
				edit.AudioChanged = true
				edit.AudioPath = audio
			}

			if err := api.UpdateEntry(cmd.Context(), args[0], edit); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&content, "content", "m", "", "entry text")
	cmd.Flags().StringVar(&location, "location", "", "place label")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "longitude")
	cmd.Flags().StringVar(&photo, "photo", "", "replacement photo file")
	cmd.Flags().StringVar(&audio, "audio", "", "replacement audio clip")
	cmd.Flags().BoolVar(&clearPhoto, "clear-photo", false, "remove the stored photo")
	cmd.Flags().BoolVar(&clearAudio, "clear-audio", false, "remove the stored audio clip")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <entry-id>",
		Short: "Delete an entry and its media",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := ctx.api()
			if err != nil {
				return err
			}
			if !yes && !confirm(cmd, fmt.Sprintf("delete entry %s and its media?", args[0])) {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
			if err := api.DeleteEntry(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newAudioCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audio <entry-id>",
		Short: "Download the entry's audio clip into the media directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			api, err := ctx.api()
			if err != nil {
				return err
			}
			dst := filepath.Join(cfg.MediaDir, args[0]+".3gp")
			if err := api.DownloadAudio(cmd.Context(), args[0], dst); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dst)
			return nil
		},
	}
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the local setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			problems := client.Preflight(cfg, ctx.tokenStore())
			if len(problems) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "all good")
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", p)
			}
			return fmt.Errorf("%d problem(s) found", len(problems))
		},
	}
}

func preview(content string) string {
	content = strings.ReplaceAll(content, "\n", " ")
	if len(content) > 40 {
		return content[:40] + "..."
	}
	return content
}

func mediaFlags(e *client.Entry) string {
	var parts []string
	if e.ImageBase64 != "" {
		parts = append(parts, "photo")
	}
	if e.AudioFileName != "" {
		parts = append(parts, "audio")
	}
	return strings.Join(parts, "+")
}
