package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pamdes/internal/clock"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  ledgerdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  ledgerdomain.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Post(ctx context.Context, tx *gorm.DB, req ledgerdomain.PostRequest) error {
	if req.VillageID == uuid.Nil {
		return ledgerdomain.ErrInvalidVillage
	}
	switch req.SourceType {
	case ledgerdomain.SourceTypeBill, ledgerdomain.SourceTypePayment:
	default:
		return ledgerdomain.ErrInvalidSourceType
	}
	if req.SourceID == 0 {
		return ledgerdomain.ErrInvalidSourceID
	}
	if req.OccurredAt.IsZero() {
		return ledgerdomain.ErrInvalidOccurredAt
	}
	if len(req.Lines) < 2 {
		return ledgerdomain.ErrInvalidEntryLines
	}

	for _, line := range req.Lines {
		if !line.AccountCode.Valid() {
			return ledgerdomain.ErrInvalidAccount
		}
		if line.Amount.IsNegative() {
			return ledgerdomain.ErrInvalidLineAmount
		}
	}
	if err := ledgerdomain.ValidateBalanced(req.Lines); err != nil {
		return err
	}

	if tx == nil {
		tx = s.db
	}

	inserted := false
	err := tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock.Now()
		entry := &ledgerdomain.LedgerEntry{
			ID:         s.genID.Generate(),
			VillageID:  req.VillageID,
			SourceType: req.SourceType,
			SourceID:   req.SourceID,
			OccurredAt: req.OccurredAt.UTC(),
			CreatedAt:  now,
		}
		ok, err := s.repo.InsertEntry(ctx, tx, entry)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		inserted = true

		lines := make([]ledgerdomain.LedgerEntryLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, ledgerdomain.LedgerEntryLine{
				ID:            s.genID.Generate(),
				LedgerEntryID: entry.ID,
				AccountCode:   line.AccountCode,
				Direction:     line.Direction,
				Amount:        line.Amount.Round(2),
				CreatedAt:     now,
			})
		}
		return s.repo.InsertLines(ctx, tx, lines)
	})
	if err != nil {
		return err
	}

	if !inserted {
		s.log.Debug("ledger entry already posted",
			zap.String("source_type", string(req.SourceType)),
			zap.String("source_id", req.SourceID.String()),
		)
	}
	return nil
}

func (s *Service) EntryForSource(ctx context.Context, sourceType ledgerdomain.LedgerSourceType, sourceID snowflake.ID) (*ledgerdomain.LedgerEntry, []ledgerdomain.LedgerEntryLine, error) {
	return s.repo.FindBySource(ctx, s.db, sourceType, sourceID)
}

func (s *Service) Balance(ctx context.Context, villageID uuid.UUID, account ledgerdomain.LedgerAccountCode) (decimal.Decimal, error) {
	if villageID == uuid.Nil {
		return decimal.Zero, ledgerdomain.ErrInvalidVillage
	}
	if !account.Valid() {
		return decimal.Zero, ledgerdomain.ErrInvalidAccount
	}
	return s.repo.Balance(ctx, s.db, villageID, account)
}
