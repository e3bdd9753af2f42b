package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dejikatsu/dejiryu/internal/clock"
	"github.com/dejikatsu/dejiryu/internal/config"
	"github.com/dejikatsu/dejiryu/internal/jobs"
	"github.com/dejikatsu/dejiryu/internal/logger"
	"github.com/dejikatsu/dejiryu/internal/metrics"
	"github.com/dejikatsu/dejiryu/internal/news"
	"github.com/dejikatsu/dejiryu/internal/ops"
	"github.com/dejikatsu/dejiryu/internal/scheduler"
	"github.com/dejikatsu/dejiryu/internal/state"
	"github.com/dejikatsu/dejiryu/internal/telegram"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	serveConfigPath string
	serveLogLevel   string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the DejiRyu bot (main command)",
	Long: `Start DejiRyu with the specified configuration.
This connects to Telegram, restores the persisted state and starts the
wall-clock job schedule, then runs until interrupted.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	// Load the first env file that exists
	envFile := loadEnvFiles()

	// Determine config path
	configPath := resolveConfigPath(serveConfigPath)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Override log level if flag is set
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}

	// Validate configuration
	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	if envFile == "env.example" {
		log.Warn("⚠️ Loaded env.example, replace its placeholder credentials")
	}

	// Log startup information
	log.Info("🚀 Starting DejiRyu",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "timezone", Value: cfg.Schedule.Timezone},
		logger.Field{Key: "state_path", Value: cfg.State.Path},
	)

	loc, err := cfg.Location()
	if err != nil {
		log.Error("Failed to load schedule timezone", err)
		os.Exit(1)
	}
	clk := clock.NewZoned(loc)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Restore persisted state
	log.Info("💾 Opening state store",
		logger.Field{Key: "path", Value: cfg.State.Path})
	store, err := state.NewStore(cfg.State.Path, log)
	if err != nil {
		log.Error("Failed to open state store", err)
		os.Exit(1)
	}

	// Metrics registry for jobs and the ops endpoint
	registry := prometheus.NewRegistry()
	m := metrics.New("dejiryu", registry)

	// Initialize Telegram connector
	log.Info("📱 Initializing Telegram connector")
	connector := telegram.New(cfg, log, clk, store)

	// Initialize news client
	newsClient := news.NewClient(cfg.News, log)

	// Wire the job service against the connector's sender and recorder
	service := jobs.New(cfg, store, clk, log, m,
		connector.Sender(), connector.Recorder(), connector.Recorder(), newsClient)
	connector.AttachRegistrar(service)

	if err := connector.Start(ctx); err != nil {
		log.Error("Failed to start Telegram connector", err)
		os.Exit(1)
	}

	// Initialize the job runner
	log.Info("⏰ Initializing job schedule")
	runner := scheduler.NewRunner(loc, clk, log, m)
	for _, job := range service.Jobs() {
		if err := runner.Register(job); err != nil {
			log.Error("Failed to register job", err,
				logger.Field{Key: "job", Value: job.Name})
			os.Exit(1)
		}
	}
	if err := runner.Start(ctx); err != nil {
		log.Error("Failed to start job runner", err)
		os.Exit(1)
	}

	// Optional ops listener
	opsServer := ops.New(cfg.Ops, log, registry, runner)
	opsServer.Start()

	log.Info("✅ DejiRyu is running")

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info("⏳ Received shutdown signal",
		logger.Field{Key: "signal", Value: sig.String()})

	// Graceful shutdown: stop ticking first, then disconnect
	log.Info("🛑 Shutting down DejiRyu...")
	runner.Stop()

	if err := connector.Stop(); err != nil {
		log.Error("Failed to stop Telegram connector", err)
	}

	if err := opsServer.Stop(); err != nil {
		log.Error("Failed to stop ops listener", err)
	}

	cancel()

	log.Info("👋 DejiRyu stopped gracefully")
	os.Exit(0)
}

// loadEnvFiles loads the first env file present, in precedence order, and
// returns its name. env.example ships placeholder credentials only, so the
// caller warns when the fallthrough reaches it.
func loadEnvFiles() string {
	for _, name := range []string{".env", "env.local", "env.example"} {
		if err := godotenv.Load(name); err == nil {
			return name
		}
	}

	return ""
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
}
