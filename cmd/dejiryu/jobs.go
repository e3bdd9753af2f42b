package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/jobs"
	"github.com/spf13/cobra"
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs [config-file]",
	Short: "Show the job schedule",
	Long:  `Display every scheduled job with its period, anchor and next run time.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		configPath := ""
		if len(args) > 0 {
			configPath = args[0]
		}
		configPath = resolveConfigPath(configPath)

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		loc, err := cfg.Location()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load timezone: %v\n", err)
			os.Exit(1)
		}
		now := time.Now().In(loc)

		// Only the schedule declaration is read here, so the job service
		// runs without its runtime dependencies.
		service := jobs.New(cfg, nil, clock.NewZoned(loc), nil, nil, nil, nil, nil, nil)

		fmt.Printf("Schedule (timezone %s):\n\n", cfg.Schedule.Timezone)
		fmt.Printf("%-20s %-8s %-7s %s\n", "JOB", "PERIOD", "ANCHOR", "FIRST RUN")
		for _, job := range service.Jobs() {
			anchor := "-"
			firstRun := "immediately"
			if job.Anchor != nil {
				anchor = fmt.Sprintf("%02d:%02d", job.Anchor.Hour, job.Anchor.Minute)
				firstRun = clock.NextDailyAnchor(now, job.Anchor.Hour, job.Anchor.Minute).Format("2006-01-02 15:04 MST")
			}
			fmt.Printf("%-20s %-8s %-7s %s\n", job.Name, formatPeriod(job.Period), anchor, firstRun)
		}
	},
}

// formatPeriod renders a job period in the largest whole unit.
func formatPeriod(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}
