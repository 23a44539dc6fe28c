package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"tradeledger/internal/app"
	"tradeledger/internal/client"
	"tradeledger/internal/config"
	"tradeledger/internal/infrastructure/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "tradeledger",
	Short:         "Multi-client trading ledger server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("startup: %w", err)
		}
		defer a.Close()

		fmt.Printf("Server running at %s\n", cfg.Addr())
		if cfg.HealthPort != "" {
			fmt.Printf("Health check: http://%s/health/json\n", net.JoinHostPort(cfg.Host, cfg.HealthPort))
		}
		fmt.Println("---")
		return a.Run(ctx)
	},
}

var clientCmd = &cobra.Command{
	Use:   "client [host]",
	Short: "Interactive client for a ledger server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		host := cfg.Host
		if len(args) == 1 {
			host = args[0]
		}
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Port
		}
		addr := net.JoinHostPort(host, port)

		c, err := client.Dial(cmd.Context(), addr)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		defer c.Close()
		fmt.Printf("[*] Connected to server at %s\n", addr)
		return client.Run(c, os.Stdin, os.Stdout)
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default accounts and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		created, err := database.Seed(db, database.DefaultAccounts)
		if err != nil {
			return err
		}
		log.Info().Int("created", created).Msg("seed complete")
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	app.SetupLogging(cfg.Env, cfg.LogLevel)
	return cfg, nil
}

func init() {
	clientCmd.Flags().String("port", "", "server port (default SERVER_PORT)")
	rootCmd.AddCommand(serveCmd, clientCmd, seedCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
