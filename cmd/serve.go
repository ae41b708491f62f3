package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/codemint/internal/api"
	"github.com/codemint/internal/codes"
	"github.com/codemint/internal/config"
	"github.com/codemint/internal/database"
	"github.com/codemint/internal/mailer"
	"github.com/codemint/internal/payment"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the codemint API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if p := c.Int("port"); p != 0 {
				cfg.Server.Port = p
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			store, err := buildStore(cfg)
			if err != nil {
				return err
			}

			if cfg.Razorpay.WebhookSecret == "" {
				log.Warn().Msg("Razorpay webhook secret not configured, all webhooks will be rejected")
			}

			webhook := payment.NewRazorpayWebhookHandler(store, buildMailer(cfg), cfg.Razorpay.WebhookSecret)

			fmt.Printf("Starting codemint API server on port %d...\n", cfg.Server.Port)

			server := api.NewServer(api.Options{
				Port:        cfg.Server.Port,
				Store:       store,
				Webhook:     webhook,
				ExposeCodes: cfg.Debug.ExposeCodes,
			})
			return server.Start()
		},
	}
}

func buildStore(cfg *config.Config) (codes.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return codes.NewFileStore(cfg.Store.Path), nil
	case "postgres":
		db, err := database.NewDB(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		store := codes.NewPGStore(db)
		if err := store.EnsureSchema(context.Background()); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	if cfg.SMTP.Username == "" || cfg.SMTP.Password == "" {
		return mailer.Noop{}
	}
	return mailer.NewGomail(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
}
