package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/timetable"
	"github.com/tsawler/timetable/course"
)

func convertCmd(env *environment) *cobra.Command {
	var out string
	var tz string
	var outputFormat string
	var hint string
	var today string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert a schedule PDF or image into calendar events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			conv := timetable.Open(args[0]).
				Config(cfg).
				Logger(env.logger()).
				Hint(hint).
				Timezone(tz)
			if today != "" {
				day, err := time.Parse(time.DateOnly, today)
				if err != nil {
					return fmt.Errorf("invalid --today: %w", err)
				}
				conv = conv.Today(day)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			ctx := cmd.Context()
			switch strings.ToLower(outputFormat) {
			case "ics":
				ics, err := conv.Calendar(ctx)
				if err != nil {
					return err
				}
				_, err = w.Write(ics)
				return err
			case "csv":
				courses, err := conv.Courses(ctx)
				if err != nil {
					return err
				}
				return course.WriteCSV(w, courses)
			case "json":
				courses, err := conv.Courses(ctx)
				if err != nil {
					return err
				}
				return course.WriteJSON(w, courses)
			default:
				return fmt.Errorf("unknown format %q: want ics, csv or json", outputFormat)
			}
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&tz, "tz", "", "timezone code, e.g. KSA or ALG (default: configured default)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "ics", "output format: ics|csv|json")
	cmd.Flags().StringVar(&hint, "browser", "CHROME", "browser that printed the schedule (informational)")
	cmd.Flags().StringVar(&today, "today", "", "first date to schedule from, YYYY-MM-DD (default: today)")
	return cmd
}
