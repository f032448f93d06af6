// Package storage selects the SQL or Firestore implementation of every repository.
package storage

import (
	authrepo "github.com/smallbiznis/clubos/internal/auth/repository"
	bookingrepo "github.com/smallbiznis/clubos/internal/booking/repository"
	"github.com/smallbiznis/clubos/internal/config"
	leadrepo "github.com/smallbiznis/clubos/internal/lead/repository"
	"github.com/smallbiznis/clubos/internal/migration"
	"github.com/smallbiznis/clubos/pkg/db"
	"github.com/smallbiznis/clubos/pkg/docstore"
	"go.uber.org/fx"
)

func Module(cfg config.Config) fx.Option {
	if cfg.StoreDriver == config.StoreDriverFirestore {
		return fx.Module("storage.firestore",
			docstore.Module,
			fx.Provide(
				bookingrepo.NewFirestore,
				authrepo.NewFirestore,
				leadrepo.NewFirestore,
			),
		)
	}

	return fx.Module("storage.sql",
		db.Module,
		migration.Module,
		fx.Provide(
			bookingrepo.NewSQL,
			authrepo.NewSQL,
			leadrepo.NewSQL,
		),
	)
}
