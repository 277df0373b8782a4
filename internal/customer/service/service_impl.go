package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/clock"
	"github.com/smallbiznis/pamdes/internal/customer/domain"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
	"github.com/smallbiznis/pamdes/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	VillageRepo villagedomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	villageRepo villagedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("customer.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		villageRepo: p.VillageRepo,
	}
}

// Create assigns the next sequential code under the village row lock.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Customer, error) {
	if req.VillageID == uuid.Nil {
		return nil, domain.ErrInvalidVillage
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var created *domain.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		village, err := s.villageRepo.LockByID(ctx, tx, req.VillageID)
		if err != nil {
			return err
		}
		if village == nil {
			return domain.ErrInvalidVillage
		}

		seq, err := s.repo.MaxSequence(ctx, tx, village.ID)
		if err != nil {
			return err
		}
		seq++

		now := s.clock.Now()
		customer := &domain.Customer{
			ID:        s.genID.Generate(),
			VillageID: village.ID,
			Code:      domain.FormatCode(village.CodePrefix, seq),
			Sequence:  seq,
			Name:      name,
			Address:   strings.TrimSpace(req.Address),
			Phone:     strings.TrimSpace(req.Phone),
			Status:    domain.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, customer); err != nil {
			return err
		}
		created = customer
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("customer created",
		zap.String("village_id", created.VillageID.String()),
		zap.String("code", created.Code),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) GetByCode(ctx context.Context, villageID uuid.UUID, code string) (*domain.Customer, error) {
	customer, err := s.repo.FindByCode(ctx, s.db, villageID, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	if req.VillageID == uuid.Nil {
		return domain.ListResponse{}, domain.ErrInvalidVillage
	}
	if req.Status != "" && !req.Status.Valid() {
		return domain.ListResponse{}, domain.ErrInvalidStatus
	}

	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	items, err := s.repo.List(ctx, s.db, req.VillageID, domain.ListFilter{
		Status: req.Status,
		Name:   strings.ToLower(strings.TrimSpace(req.Name)),
	}, page)
	if err != nil {
		return domain.ListResponse{}, err
	}

	items, pageInfo := pagination.Split(items, page.Limit(), func(c *domain.Customer) int64 {
		return c.ID.Int64()
	})
	return domain.ListResponse{PageInfo: pageInfo, Customers: items}, nil
}

func (s *Service) SetStatus(ctx context.Context, id snowflake.ID, status domain.Status) (*domain.Customer, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.Status == status {
		return customer, nil
	}
	if err := s.repo.UpdateStatus(ctx, s.db, id, status, s.clock.Now()); err != nil {
		return nil, err
	}
	customer.Status = status
	s.log.Info("customer status changed",
		zap.String("customer_id", id.String()),
		zap.String("status", string(status)),
	)
	return customer, nil
}
