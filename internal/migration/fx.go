package migration

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module brings the schema up to date before any other component starts.
var Module = fx.Module("migration",
	fx.Invoke(Apply),
)

// Apply runs the embedded SQL migrations on postgres and falls back to
// model-driven AutoMigrate for mysql and sqlite.
func Apply(conn *gorm.DB, log *zap.Logger) error {
	dialect := conn.Dialector.Name()
	log = log.Named("migration").With(zap.String("dialect", dialect))
	if dialect != "postgres" {
		log.Info("migrating schema from models", zap.Int("models", len(Models())))
		return AutoMigrate(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("sql migrations applied")
	return nil
}
