// shelfctl mints an access token with the configured credentials and
// prints it, which is mostly useful for verifying an app-auth setup
// before wiring the SDK into a real service.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelfhq/shelf-go/pkg/eventx"
	"github.com/shelfhq/shelf-go/pkg/shelf"
	"github.com/shelfhq/shelf-go/pkg/slogx"
)

func main() {
	cfg := LoadConfig()

	logger := slogx.New(slogx.Config{
		Component: "shelfctl",
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Output:    os.Stderr,
	})

	client, err := buildClient(cfg, logger)
	if err != nil {
		log.Fatalf("failed to initialize client: %v", err)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := pickSession(client, cfg)
	token, err := sess.AccessToken(ctx)
	if err != nil {
		log.Fatalf("token exchange failed: %v", err)
	}
	fmt.Println(token)
}

func buildClient(cfg Config, logger *slog.Logger) (*shelf.Client, error) {
	sc := shelf.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		APIBaseURL:   cfg.APIBaseURL,
		TokenURL:     cfg.TokenURL,
		Timeout:      cfg.Timeout,
		MaxAttempts:  cfg.MaxAttempts,
		Logger:       logger,
		Bus:          eventx.New(),
	}

	if cfg.PrivateKeyFile != "" {
		pemKey, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read signing key: %w", err)
		}
		sc.AppAuth = &shelf.AppAuthConfig{
			PrivateKeyPEM: pemKey,
			Passphrase:    cfg.KeyPassphrase,
			KeyID:         cfg.KeyID,
			EnterpriseID:  cfg.EnterpriseID,
			AssertionTTL:  cfg.AssertionTTL,
		}
	}

	if err := sc.Bus.Subscribe(eventx.TopicRequestRetry, func(ev eventx.RequestEvent) {
		logger.Warn("retrying request",
			"method", ev.Method,
			"path", ev.Path,
			"attempt", ev.Attempt,
			"status", ev.Status,
			"kind", ev.Kind,
		)
	}); err != nil {
		return nil, err
	}

	return shelf.New(sc)
}

// pickSession selects the most privileged session the config supports.
func pickSession(client *shelf.Client, cfg Config) shelf.Session {
	switch {
	case cfg.UserID != "":
		return client.AppUserSession(cfg.UserID, nil)
	case cfg.PrivateKeyFile != "" || cfg.EnterpriseID != "":
		return client.AppEnterpriseSession(cfg.EnterpriseID, nil)
	default:
		return client.AnonymousSession()
	}
}
