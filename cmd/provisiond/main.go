package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/lumapay/provision/internal/provider"
	"github.com/lumapay/provision/internal/provider/stripe"
	"github.com/lumapay/provision/internal/provision"
	"github.com/lumapay/provision/internal/server"
	"github.com/lumapay/provision/internal/store"
	"github.com/lumapay/provision/internal/workflow"
	"github.com/lumapay/provision/internal/workflow/runstore"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "provisiond",
		Short: "Durable account provisioning service",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a config file (optional; environment variables take precedence)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("PROVISION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("db_path", "provision.db")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	}
	return v, nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	stripeKey := cfg.GetString("stripe_api_key")
	if stripeKey == "" {
		return fmt.Errorf("stripe api key is required (PROVISION_STRIPE_API_KEY)")
	}

	db, err := sql.Open("sqlite", cfg.GetString("db_path"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	accounts, err := store.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("failed to init account store: %w", err)
	}

	runs, err := runstore.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("failed to init run store: %w", err)
	}

	engine := workflow.New(workflow.Config{
		Runs:     runs,
		Observer: workflow.NewLoggingObserver(logger),
	})

	providers := provider.NewRegistry(stripe.New(stripeKey, logger))
	activities := provision.NewActivities(providers, accounts, logger)
	if err := provision.RegisterWorkflows(engine, activities); err != nil {
		return fmt.Errorf("failed to register workflows: %w", err)
	}

	// Pick up runs interrupted by a previous crash before serving
	// traffic; they continue from their last checkpoint.
	resumed, err := engine.ResumeInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("failed to resume interrupted runs: %w", err)
	}
	if resumed > 0 {
		logger.Info().Int("count", resumed).Msg("resumed interrupted runs")
	}

	service := provision.NewService(engine, accounts, logger)

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.GetString("addr"),
		ShutdownTimeout: cfg.GetDuration("shutdown_timeout"),
	}, service)

	return api.Start()
}
