package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jrowe/fitdedup/internal/activity"
	"github.com/jrowe/fitdedup/internal/config"
	"github.com/jrowe/fitdedup/internal/dedup"
	"github.com/jrowe/fitdedup/internal/review"
	"github.com/jrowe/fitdedup/internal/source"
)

const dateLayout = "2006-01-02"

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch activities and review duplicates",
	Long: `Fetch activities from the configured providers, detect duplicates and
review them interactively.

Pairs with a clear data-quality winner are marked for deletion
automatically; pairs whose quality scores are very close are put to you
one at a time. The scan ends with a list of marked activities and the
provider pages where you can delete them.

Examples:
  fitdedup scan                          # last 30 days, all providers
  fitdedup scan --last-days 90           # wider window
  fitdedup scan --start-date 2025-01-01 --end-date 2025-06-30
  fitdedup scan --source strava          # one provider only
  fitdedup scan --dry-run                # report, prompt for nothing`,
	Run: func(cmd *cobra.Command, args []string) {
		lastDays, _ := cmd.Flags().GetInt("last-days")
		startDate, _ := cmd.Flags().GetString("start-date")
		endDate, _ := cmd.Flags().GetString("end-date")
		sourceName, _ := cmd.Flags().GetString("source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		from, to, err := resolveRange(lastDays, startDate, endDate, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		detectorCfg, err := resolveThresholds(cmd, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		logger := diagLogger()
		logger.Printf("scan run %s: range %s to %s", uuid.NewString(),
			from.Format(dateLayout), to.Format(dateLayout))

		sources, err := buildSources(ctx, cfg, sourceName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		activities, urlFor, err := fetchAll(ctx, sources, from, to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Fetched %d activities between %s and %s.\n",
			len(activities), from.Format(dateLayout), to.Format(dateLayout))

		detector := dedup.NewDetector(detectorCfg)
		detector.SetLogger(logger)
		pairs := detector.FindDuplicates(activities)

		if dryRun {
			fmt.Printf("%s\n", color.YellowString("DRY RUN MODE - all recommendations are marked, nothing is prompted"))
		}

		session := review.NewSession(os.Stdout, urlFor)
		session.DryRun = dryRun
		if _, err := session.Run(pairs); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	scanCmd.Flags().Int("last-days", 30, "scan the last N days")
	scanCmd.Flags().String("start-date", "", "range start (YYYY-MM-DD, overrides --last-days)")
	scanCmd.Flags().String("end-date", "", "range end (YYYY-MM-DD, defaults to today)")
	scanCmd.Flags().String("source", "all", "provider to scan: strava, stryd or all")
	scanCmd.Flags().Bool("dry-run", false, "mark every recommendation without prompting")
	scanCmd.Flags().Float64("time-window", 0, "override time window in minutes")
	scanCmd.Flags().Float64("overlap-threshold", 0, "override minimum overlap percentage")
	rootCmd.AddCommand(scanCmd)
}

// resolveRange turns the date flags into a concrete [from, to] range.
// Explicit dates win over --last-days; a missing end date means now.
func resolveRange(lastDays int, startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	to := now
	if endDate != "" {
		parsed, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end-date %q: %w", endDate, err)
		}
		// Include the whole end day.
		to = parsed.Add(24*time.Hour - time.Second)
	}

	var from time.Time
	if startDate != "" {
		parsed, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q: %w", startDate, err)
		}
		from = parsed
	} else {
		if lastDays <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("--last-days must be positive")
		}
		from = to.AddDate(0, 0, -lastDays)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("range start %s is after range end %s",
			from.Format(dateLayout), to.Format(dateLayout))
	}
	return from, to, nil
}

// resolveThresholds layers the detector configuration: config file, then
// environment, then explicit flags.
func resolveThresholds(cmd *cobra.Command, cfg *config.File) (dedup.Config, error) {
	detectorCfg := cfg.DedupConfig()
	if err := detectorCfg.ApplyEnv(); err != nil {
		return dedup.Config{}, err
	}

	if cmd.Flags().Changed("time-window") {
		detectorCfg.TimeWindowMinutes, _ = cmd.Flags().GetFloat64("time-window")
	}
	if cmd.Flags().Changed("overlap-threshold") {
		detectorCfg.MinimumOverlapPercent, _ = cmd.Flags().GetFloat64("overlap-threshold")
	}

	if err := detectorCfg.Validate(); err != nil {
		return dedup.Config{}, err
	}
	return detectorCfg, nil
}

// fetchAll pulls activities from every source concurrently and returns
// the merged list plus a resolver from activity to provider page.
func fetchAll(ctx context.Context, sources []source.Source, from, to time.Time) ([]activity.Activity, review.URLResolver, error) {
	byName := make(map[string]source.Source, len(sources))
	results := make([][]activity.Activity, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		i, s := i, s
		byName[s.Name()] = s
		g.Go(func() error {
			fetched, err := s.Activities(gctx, from, to)
			if err != nil {
				return fmt.Errorf("fetching from %s: %w", s.Name(), err)
			}
			results[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var merged []activity.Activity
	for _, batch := range results {
		merged = append(merged, batch...)
	}

	urlFor := func(a *activity.Activity) string {
		s, ok := byName[a.Source]
		if !ok {
			return ""
		}
		return s.ActivityURL(a.ID)
	}
	return merged, urlFor, nil
}
