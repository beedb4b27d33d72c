package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/event-ingest/internal/dateparse"
)

func (a *app) parseDateCmd() *cobra.Command {
	var timeText, sourceID, reference, format string

	cmd := &cobra.Command{
		Use:   "parse-date <date text>",
		Short: "Run the date cascade on one phrase",
		Long: `Parses a date phrase the way ingest would. With --source the source's
default time and duration apply; otherwise dates start at midnight and
run to the end of the day.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := parseFormat(format)
			if err != nil {
				return err
			}

			ref := a.now()
			if reference != "" {
				ref, err = time.Parse("2006-01-02", reference)
				if err != nil {
					return fmt.Errorf("invalid --reference %q: use YYYY-MM-DD", reference)
				}
			}

			defaults := dateparse.Defaults{Duration: dateparse.AllDayPolicy, Reference: ref}
			if sourceID != "" {
				registry, err := a.loadSources()
				if err != nil {
					return err
				}
				src, ok := registry.Get(sourceID)
				if !ok {
					return fmt.Errorf("unknown source %q", sourceID)
				}
				defaults = src.DateDefaults(ref)
			}

			res := dateparse.Parse(args[0], timeText, defaults)
			if outFormat == FormatJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			if !res.OK() {
				fmt.Fprintf(a.out, "unparseable: %s\n", res.Reason)
				return nil
			}
			fmt.Fprintf(a.out, "start:   %s\n", res.Start.Format(displayLayout))
			fmt.Fprintf(a.out, "end:     %s\n", res.End.Format(displayLayout))
			fmt.Fprintf(a.out, "matcher: %s\n", res.Matcher)
			return nil
		},
	}

	cmd.Flags().StringVar(&timeText, "time", "", "Separate time phrase")
	cmd.Flags().StringVar(&sourceID, "source", "", "Use the defaults of this source")
	cmd.Flags().StringVar(&reference, "reference", "", "Reference date (YYYY-MM-DD) for missing years")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}
