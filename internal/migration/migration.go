package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
	bundledomain "github.com/smallbiznis/pamdes/internal/bundle/domain"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
	"gorm.io/gorm"
)

// Models lists every persisted entity in dependency order.
func Models() []any {
	return []any{
		&villagedomain.Village{},
		&customerdomain.Customer{},
		&collectordomain.Collector{},
		&perioddomain.BillingPeriod{},
		&usagedomain.WaterUsage{},
		&tariffdomain.WaterTariff{},
		&billdomain.Bill{},
		&bundledomain.Item{},
		&paymentdomain.Payment{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
	}
}

// AutoMigrate builds the schema from the models for databases without SQL migrations.
// The single-bill-per-reading index is partial and needs dialect support.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if db.Dialector.Name() == "mysql" {
		return nil
	}
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS ux_bills_single_usage ON bills (usage_id) WHERE bill_count = 1`).Error
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}
