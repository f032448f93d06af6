package docstore

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/smallbiznis/clubos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var Module = fx.Module("docstore",
	fx.Provide(New),
)

// New builds the shared Firestore client and closes it on shutdown.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*firestore.Client, error) {
	client, err := NewClient(context.Background(), cfg.Firestore)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := client.Close(); err != nil {
				log.Warn("firestore close failed", zap.Error(err))
			}
			return nil
		},
	})
	return client, nil
}

func NewClient(ctx context.Context, cfg config.FirestoreConfig) (*firestore.Client, error) {
	projectID := strings.TrimSpace(cfg.ProjectID)
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id not configured")
	}

	if host := strings.TrimSpace(cfg.EmulatorHost); host != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", host); err != nil {
			return nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
		}
	}

	var opts []option.ClientOption
	if credentials := strings.TrimSpace(cfg.CredentialsFile); credentials != "" {
		opts = append(opts, option.WithCredentialsFile(credentials))
	}

	return firestore.NewClient(ctx, projectID, opts...)
}
