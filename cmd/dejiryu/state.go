package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/state"
	"github.com/spf13/cobra"
)

// stateCmd represents the state command
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted state",
	Long:  `Inspect the persisted bot state: pending events, weekly tallies and markers.`,
}

// stateShowCmd represents the state show command
var stateShowCmd = &cobra.Command{
	Use:   "show [config-file]",
	Short: "Show the persisted state",
	Long:  `Load the state file referenced by the configuration and print a summary.`,
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

		log, err := logger.New(logger.Config{Level: "warn", Format: "text", Output: "stderr"})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
			os.Exit(1)
		}

		store, err := state.NewStore(cfg.State.Path, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open state file: %v\n", err)
			os.Exit(1)
		}

		printState(store.Snapshot(), cfg.State.Path, loc)
	},
}

func printState(snap state.State, path string, loc *time.Location) {
	const stamp = "2006-01-02 15:04 MST"

	fmt.Printf("State file: %s\n\n", path)

	fmt.Printf("Pending events: %d\n", len(snap.Events))
	for _, ev := range snap.Events {
		fmt.Printf("  - %s at %s (reminders fired: %d/%d)\n",
			ev.Title, ev.EventTime.In(loc).Format(stamp), len(ev.Reminded), len(ev.Reminders))
	}

	fmt.Printf("\nExclusive rotation: cursor %d", snap.ExclusiveRotationIndex)
	if snap.LastExclusiveDrop != nil {
		fmt.Printf(", last drop %s", snap.LastExclusiveDrop.In(loc).Format(stamp))
	}
	fmt.Println()

	fmt.Printf("\nReaction weeks: %d\n", len(snap.ReactionCounts))
	for _, week := range sortedKeys(snap.ReactionCounts) {
		total := 0
		for _, count := range snap.ReactionCounts[week] {
			total += count
		}
		fmt.Printf("  - %s: %d users, %d reactions\n", week, len(snap.ReactionCounts[week]), total)
	}

	fmt.Printf("\nAchievement weeks: %d\n", len(snap.AchievementLogs))
	for _, week := range sortedKeys(snap.AchievementLogs) {
		fmt.Printf("  - %s: %d reports\n", week, len(snap.AchievementLogs[week]))
	}

	fmt.Println("\nMarkers:")
	printMarker("last_self_intro_digest", snap.LastSelfIntroDigest, loc, stamp)
	printMarker("last_ai_news_push", snap.LastAINewsPush, loc, stamp)
	printMarker("last_consultation_ping", snap.LastConsultationPing, loc, stamp)
}

func printMarker(name string, t *time.Time, loc *time.Location, stamp string) {
	if t == nil {
		fmt.Printf("  - %s: never\n", name)
		return
	}
	fmt.Printf("  - %s: %s\n", name, t.In(loc).Format(stamp))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
}
