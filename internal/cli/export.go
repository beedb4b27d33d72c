package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/calendar"
	"github.com/pfrederiksen/event-ingest/internal/logger"
)

func (a *app) exportCmd() *cobra.Command {
	var ff filterFlags
	var output, name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored events as an iCalendar file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			events, f, err := a.selectEvents(ctx, store, &ff)
			if err != nil {
				return err
			}
			sortEvents(events, SortByDate)

			var w io.Writer = a.out
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer file.Close()
				w = file
			}

			if err := calendar.Export(w, events, calendar.Options{Name: name, Now: a.now()}); err != nil {
				return err
			}
			logger.Info("Calendar exported", logger.Fields{"count": len(events), "filter": f.String(), "output": output})
			return nil
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&name, "name", "Events", "Calendar name")
	return cmd
}
