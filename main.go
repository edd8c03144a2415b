package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogem/devlog-collector/client"
	"github.com/blogem/devlog-collector/config"
	"github.com/blogem/devlog-collector/controllers"
	"github.com/blogem/devlog-collector/database"
	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/repositories"
	"github.com/blogem/devlog-collector/server"
	"github.com/blogem/devlog-collector/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "devlog",
		Short:        "Debug log collector for mobile app testing",
		SilenceUsage: true,
	}

	serveCmd := newServeCommand()
	rootCmd.AddCommand(serveCmd, newSendCommand())

	// Running without a subcommand starts the server
	rootCmd.RunE = serveCmd.RunE
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the log collection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadServeConfig(cmd, configPath)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return run(ctx, cfg, configPath)
		},
	}

	cmd.Flags().String("config", "", "YAML config file (default $DEVLOG_CONFIG)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0)")
	cmd.Flags().Int("port", 0, "Listen port (default 8081)")
	cmd.Flags().Int("capacity", 0, "Number of log records kept in memory (default 1000)")
	cmd.Flags().Int("max-conns", -1, "Maximum simultaneous connections, 0 for unlimited")
	cmd.Flags().String("audit-db", "", "SQLite file recording ingest/clear requests (disabled when empty)")
	cmd.Flags().Bool("quiet", false, "Disable request and per-record console output")
	return cmd
}

// loadServeConfig loads defaults, file and environment, applies explicit flags
// on top and validates the result once
func loadServeConfig(cmd *cobra.Command, configPath string) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := applyFlags(cmd, &cfg); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// applyFlags overrides cfg with flags the user set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("host") {
		cfg.Host, err = flags.GetString("host")
	}
	if err == nil && flags.Changed("port") {
		cfg.Port, err = flags.GetInt("port")
	}
	if err == nil && flags.Changed("capacity") {
		cfg.Capacity, err = flags.GetInt("capacity")
	}
	if err == nil && flags.Changed("max-conns") {
		cfg.MaxConnections, err = flags.GetInt("max-conns")
	}
	if err == nil && flags.Changed("audit-db") {
		cfg.AuditDB, err = flags.GetString("audit-db")
	}
	if err == nil && flags.Changed("quiet") {
		cfg.Quiet, err = flags.GetBool("quiet")
	}
	return err
}

func run(ctx context.Context, cfg config.Config, configPath string) error {
	var db *sql.DB
	if cfg.AuditDB != "" {
		var err error
		db, err = database.Open(cfg.AuditDB)
		if err != nil {
			return fmt.Errorf("failed to initialize audit database: %w", err)
		}
		defer db.Close()
		fmt.Printf("🗃️  Audit database: %s\n", cfg.AuditDB)
	}

	// Initialize repositories
	repos := repositories.NewRepositories(cfg.Capacity, db)

	// Initialize services
	var opts []services.LogServiceOption
	if !cfg.Quiet {
		opts = append(opts, services.WithEcho(os.Stdout))
	}
	srvs := services.NewServices(repos, opts...)

	// Initialize controllers
	ctrl := controllers.NewControllers(srvs, cfg.Dashboard)

	if configPath == "" {
		configPath = os.Getenv(config.EnvConfig)
	}
	if configPath != "" {
		go func() {
			if err := config.Watch(ctx, configPath, ctrl.Dashboard.UpdateSettings); err != nil {
				log.Printf("Config hot reload disabled: %v", err)
			}
		}()
	}

	router := server.NewRouter(ctrl, server.RouterOptions{
		Quiet: cfg.Quiet,
		Audit: repos.Audit,
	})

	port := cfg.Port
	fmt.Println("🚀 Starting debug log collector...")
	fmt.Printf("📊 Dashboard: http://localhost:%d\n", port)
	fmt.Printf("📝 Log endpoint: http://localhost:%d/log\n", port)
	fmt.Printf("📋 JSON logs: http://localhost:%d/logs\n", port)
	fmt.Printf("🗑️  Clear logs: http://localhost:%d/clear\n", port)
	fmt.Println("Press Ctrl+C to stop")

	srv := server.New(router, server.MaxConnections(cfg.MaxConnections))
	if err := srv.ListenAndServe(ctx, cfg.Addr()); err != nil {
		return err
	}

	fmt.Println("👋 Shutting down log collector...")
	return nil
}

func newSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one log record to a running collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL, _ := cmd.Flags().GetString("server")
			level, _ := cmd.Flags().GetString("level")
			tag, _ := cmd.Flags().GetString("tag")
			message, _ := cmd.Flags().GetString("message")
			useGzip, _ := cmd.Flags().GetBool("gzip")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			record := models.LogRecord{
				Timestamp: time.Now().Format(client.TimestampLayout),
				Level:     level,
				Tag:       tag,
				Message:   message,
			}

			opts := []client.Option{client.WithHTTPClient(&http.Client{Timeout: timeout})}
			if useGzip {
				opts = append(opts, client.WithGzip())
			}

			if err := client.New(serverURL, opts...).Send(cmd.Context(), record); err != nil {
				return err
			}

			fmt.Println("status: ok")
			return nil
		},
	}

	cmd.Flags().String("server", envOr("DEVLOG_SERVER", "http://127.0.0.1:8081"), "Collector base URL")
	cmd.Flags().String("level", models.DefaultLevel, "Log level")
	cmd.Flags().String("tag", "CLI", "Log tag")
	cmd.Flags().String("message", models.DefaultMessage, "Log message")
	cmd.Flags().Bool("gzip", false, "Compress the request body")
	cmd.Flags().Duration("timeout", client.DefaultTimeout, "Request timeout")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
