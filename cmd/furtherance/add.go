package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/entry"
	"github.com/r3pll/Furtherance/internal/timer"
)

func addCmd() *cobra.Command {
	var tagsFlag, startFlag, stopFlag string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Record a finished task by hand",
		Long: `Record a task that was not timed. Times use the format
"Jan 02 2006 15:04:05", or "Jan 02 2006 15:04" when show-seconds is off.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			e, err := entry.Validate(entry.Input{
				Name:  strings.Join(args, " "),
				Tags:  tagsFlag,
				Start: startFlag,
				Stop:  stopFlag,
			}, time.Now(), a.settings.GetBool(config.KeyShowSeconds))
			if err != nil {
				for _, msg := range entry.Messages(err) {
					fmt.Fprintln(os.Stderr, msg)
				}
				return errors.New("task not added")
			}

			rec := timer.NewRecorder(a.db, a.log)
			if err := rec.Record(e.Name, e.Start, e.Stop, e.TagList); err != nil {
				return err
			}
			fmt.Printf("Added %q (%s)\n", e.Name, timer.FormatClock(int(e.Stop.Sub(e.Start)/time.Second)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tagsFlag, "tags", "t", "", `tags, e.g. "#work #docs"`)
	cmd.Flags().StringVar(&startFlag, "start", "", "start time")
	cmd.Flags().StringVar(&stopFlag, "stop", "", "stop time")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("stop")

	return cmd
}
