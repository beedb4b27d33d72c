package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/event"
	"github.com/pfrederiksen/event-ingest/internal/filter"
	"github.com/pfrederiksen/event-ingest/internal/logger"
	"github.com/pfrederiksen/event-ingest/internal/storage"
)

// errAmbiguousID is returned when an id prefix names more than one event
var errAmbiguousID = errors.New("id prefix matches more than one event")

// filterFlags are shared by list and export
type filterFlags struct {
	from, to, during string
	categories       []string
	venues           []string
	sources          []string
	search           string
	free, weekends   bool
	upcoming         bool
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.from, "from", "", "Only events running on or after this date")
	flags.StringVar(&f.to, "to", "", "Only events starting on or before this date")
	flags.StringVar(&f.during, "during", "", "Only events overlapping a range such as 'Mar 1-15' or 'March'")
	flags.StringSliceVar(&f.categories, "category", nil, "Only events in any of these categories")
	flags.StringSliceVar(&f.venues, "venue", nil, "Only events at venues containing any of these names")
	flags.StringSliceVar(&f.sources, "source", nil, "Only events from any of these sources")
	flags.StringVar(&f.search, "search", "", "Only events whose title or description contains this text")
	flags.BoolVar(&f.free, "free", false, "Only free events")
	flags.BoolVar(&f.weekends, "weekends", false, "Only events touching a weekend")
	flags.BoolVar(&f.upcoming, "upcoming", false, "Only events that have not ended")
}

func (a *app) buildFilter(ff *filterFlags) (*filter.Filter, error) {
	f := filter.NewFilter()
	ref := a.now()

	if ff.during != "" {
		from, to, err := filter.ParseDateRange(ff.during, ref)
		if err != nil {
			return nil, err
		}
		f.DateFrom, f.DateTo = from, to
	}
	if ff.from != "" {
		from, err := filter.ParseBound(ff.from, ref, false)
		if err != nil {
			return nil, fmt.Errorf("--from: %w", err)
		}
		f.DateFrom = from
	}
	if ff.to != "" {
		to, err := filter.ParseBound(ff.to, ref, true)
		if err != nil {
			return nil, fmt.Errorf("--to: %w", err)
		}
		f.DateTo = to
	}
	if ff.upcoming && f.DateFrom == nil {
		now := ref
		f.DateFrom = &now
	}

	f.Categories = ff.categories
	f.Venues = ff.venues
	f.Sources = ff.sources
	f.Search = ff.search
	f.FreeOnly = ff.free
	f.WeekendsOnly = ff.weekends
	return f, nil
}

// selectEvents lists the store and applies the filter flags
func (a *app) selectEvents(ctx context.Context, store storage.Store, ff *filterFlags) ([]*event.Event, *filter.Filter, error) {
	f, err := a.buildFilter(ff)
	if err != nil {
		return nil, nil, err
	}
	events, err := store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing events: %w", err)
	}
	return f.Apply(events), f, nil
}

func (a *app) listCmd() *cobra.Command {
	var ff filterFlags
	var format, sortFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}
			order, err := parseSortOrder(sortFlag)
			if err != nil {
				return err
			}

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
			sortEvents(events, order)
			if limit > 0 && len(events) > limit {
				events = events[:limit]
			}

			logger.Debug("Listing events", logger.Fields{"filter": f.String(), "count": len(events)})
			return WriteEvents(a.out, events, outFormat)
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&sortFlag, "sort", "date", "Sort order: date, title or venue")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most this many events")
	return cmd
}

// resolveID accepts a full id or a unique prefix of one
func resolveID(ctx context.Context, store storage.Store, id string) (*event.Event, error) {
	evt, err := store.Get(ctx, id)
	if err == nil {
		return evt, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	events, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	var found *event.Event
	for _, e := range events {
		if strings.HasPrefix(e.ID, id) {
			if found != nil {
				return nil, fmt.Errorf("%w: %s", errAmbiguousID, id)
			}
			found = e
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return found, nil
}

func (a *app) showCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			evt, err := resolveID(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := WriteEvent(a.out, evt, outFormat); err != nil {
				return err
			}

			if cl, ok := store.(storage.ChangeLog); ok && outFormat == FormatText {
				writeHistory(a.out, evt.ID, cl.Changes(0))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

func writeHistory(w io.Writer, id string, changes []*event.Change) {
	var mine []*event.Change
	for _, c := range changes {
		if c.EventID == id && c.ChangeType != "new" {
			mine = append(mine, c)
		}
	}
	if len(mine) == 0 {
		return
	}
	fmt.Fprintf(w, "\nHistory:\n")
	for _, c := range mine {
		fmt.Fprintf(w, "  %s %s: %q -> %q\n", c.DetectedAt.Format("2006-01-02 15:04"), c.ChangeType, c.OldValue, c.NewValue)
	}
}

func (a *app) deleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete stored events",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				evt, err := resolveID(ctx, store, id)
				if err != nil {
					return err
				}
				if err := store.Delete(ctx, evt.ID); err != nil {
					return fmt.Errorf("deleting %s: %w", evt.ID, err)
				}
				logger.Info("Event deleted", logger.Fields{"event_id": evt.ID, "title": evt.Title})
				fmt.Fprintf(a.out, "Deleted %s (%s)\n", shortID(evt.ID), evt.Title)
			}
			return nil
		},
	}
	return cmd
}
