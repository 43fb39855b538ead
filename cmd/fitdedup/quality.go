package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jrowe/fitdedup/internal/quality"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Report data completeness for recent activities",
	Long: `Fetch recent activities and report how complete each recording is:
which data streams it carries (heart rate, power, cadence, temperature,
GPS, elevation), how trustworthy the recording device is and the
resulting completeness score.

Useful for spotting which device to keep when the same workout is
recorded several times.

Examples:
  fitdedup quality                   # last 30 days, all providers
  fitdedup quality --last-days 7 --source strava`,
	Run: func(cmd *cobra.Command, args []string) {
		lastDays, _ := cmd.Flags().GetInt("last-days")
		sourceName, _ := cmd.Flags().GetString("source")

		if lastDays <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --last-days must be positive")
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		sources, err := buildSources(ctx, cfg, sourceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		to := time.Now()
		from := to.AddDate(0, 0, -lastDays)
		activities, _, err := fetchAll(ctx, sources, from, to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(activities) == 0 {
			fmt.Println("No activities in the selected range.")
			return
		}

		// Most complete recordings first; newest first on ties.
		sort.SliceStable(activities, func(i, j int) bool {
			si := quality.Score(&activities[i], quality.CompletenessTrustTable)
			sj := quality.Score(&activities[j], quality.CompletenessTrustTable)
			if si != sj {
				return si > sj
			}
			return activities[i].StartDate.After(activities[j].StartDate)
		})

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("%s\n\n", cyan(fmt.Sprintf("Data completeness for %d activities (last %d days)", len(activities), lastDays)))

		for i := range activities {
			a := &activities[i]
			summary := quality.Summarize(a)

			types := "none"
			if len(summary.AvailableDataTypes) > 0 {
				types = strings.Join(summary.AvailableDataTypes, ", ")
			}
			fmt.Printf("%s  %-30s %s\n", a.StartDate.Format(dateLayout), truncate(a.Name, 30),
				scoreColor(summary.Score)(fmt.Sprintf("%3d/100", summary.Score)))
			fmt.Printf("            device: %s (trust: %s), data: %s\n", a.DeviceName, summary.DeviceTrustLevel, types)
			if summary.IsManual {
				fmt.Printf("            %s\n", color.YellowString("manual entry"))
			}
		}
	},
}

func init() {
	qualityCmd.Flags().Int("last-days", 30, "report on the last N days")
	qualityCmd.Flags().String("source", "all", "provider to report on: strava, stryd or all")
	rootCmd.AddCommand(qualityCmd)
}

// scoreColor picks a color for a completeness score.
func scoreColor(score int) func(a ...interface{}) string {
	switch {
	case score >= 40:
		return color.New(color.FgGreen).SprintFunc()
	case score >= 20:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
