package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"altomayo/internal/service"

	"github.com/spf13/cobra"
)

// NewListCommand выводит каталог с заполненностью групп.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List experiences with group fill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			views, err := service.NewCatalogService(store.Experiences).List(cmd.Context())
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTART\tPRICE\tGROUP\tSTATUS")
			for _, v := range views {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d/%d\t%s\n",
					v.ID, v.Title, v.StartDateString(), v.Price, v.CurrentParticipants, v.MinParticipants, v.Status)
			}
			return tw.Flush()
		},
	}
}

// NewShowCommand выводит одну поездку.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one experience",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid experience id %q", args[0])
			}
			store, _, err := openStore(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			v, err := service.NewCatalogService(store.Experiences).Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("experience %d: %w", id, err)
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s, starts %s, %s\n", v.Title, v.Location, v.StartDateString(), v.Duration)
			fmt.Fprintf(out, "price: %s per person\n", v.Price)
			fmt.Fprintf(out, "group: %d/%d (%d%%), spots left: %d, status: %s\n",
				v.CurrentParticipants, v.MinParticipants, v.Availability.Percent, v.Availability.SpotsLeft, v.Status)
			for _, day := range v.Itinerary {
				fmt.Fprintf(out, "day %d: %d activities\n", day.Day, len(day.Activities))
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
