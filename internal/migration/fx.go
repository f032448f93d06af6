package migration

import (
	"github.com/smallbiznis/clubos/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module migrates the SQL store on startup when DATABASE_AUTO_MIGRATE is on.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if !cfg.DBAutoMigrate {
			log.Named("migrations").Info("auto migrate disabled")
			return nil
		}
		return Run(conn)
	}),
)
