package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.LedgerEntry) (bool, error) {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_type"}, {Name: "source_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertLines(ctx context.Context, db *gorm.DB, lines []domain.LedgerEntryLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *repo) FindBySource(ctx context.Context, db *gorm.DB, sourceType domain.LedgerSourceType, sourceID snowflake.ID) (*domain.LedgerEntry, []domain.LedgerEntryLine, error) {
	var entry domain.LedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, village_id, source_type, source_id, occurred_at, created_at
		 FROM ledger_entries
		 WHERE source_type = ? AND source_id = ?`,
		sourceType, sourceID,
	).Scan(&entry).Error
	if err != nil {
		return nil, nil, err
	}
	if entry.ID == 0 {
		return nil, nil, nil
	}

	var lines []domain.LedgerEntryLine
	err = db.WithContext(ctx).Raw(
		`SELECT id, ledger_entry_id, account_code, direction, amount, created_at
		 FROM ledger_entry_lines
		 WHERE ledger_entry_id = ?
		 ORDER BY id ASC`,
		entry.ID,
	).Scan(&lines).Error
	if err != nil {
		return nil, nil, err
	}
	return &entry, lines, nil
}

func (r *repo) Balance(ctx context.Context, db *gorm.DB, villageID uuid.UUID, account domain.LedgerAccountCode) (decimal.Decimal, error) {
	var row struct {
		Balance decimal.Decimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN l.direction = ? THEN l.amount ELSE -l.amount END), 0) AS balance
		 FROM ledger_entry_lines l
		 JOIN ledger_entries e ON e.id = l.ledger_entry_id
		 WHERE e.village_id = ? AND l.account_code = ?`,
		domain.LedgerEntryDirectionDebit, villageID, account,
	).Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Balance, nil
}
