package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
	"github.com/smallbiznis/pamdes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func line(account ledgerdomain.LedgerAccountCode, dir ledgerdomain.LedgerEntryDirection, amount int64) ledgerdomain.LedgerEntryLine {
	return ledgerdomain.LedgerEntryLine{AccountCode: account, Direction: dir, Amount: decimal.NewFromInt(amount)}
}

func receivable(villageID uuid.UUID, sourceID snowflake.ID, amount int64) ledgerdomain.PostRequest {
	return ledgerdomain.PostRequest{
		VillageID:  villageID,
		SourceType: ledgerdomain.SourceTypeBill,
		SourceID:   sourceID,
		OccurredAt: testutil.Now,
		Lines: []ledgerdomain.LedgerEntryLine{
			line(ledgerdomain.AccountCodeAccountsReceivable, ledgerdomain.LedgerEntryDirectionDebit, amount),
			line(ledgerdomain.AccountCodeRevenueWater, ledgerdomain.LedgerEntryDirectionCredit, amount-7000),
			line(ledgerdomain.AccountCodeRevenueFees, ledgerdomain.LedgerEntryDirectionCredit, 7000),
		},
	}
}

func TestPost_WritesBalancedEntryOnce(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	villageID := uuid.New()
	sourceID := e.GenID.Generate()

	require.NoError(t, e.Ledger.Post(ctx, nil, receivable(villageID, sourceID, 32000)))
	require.NoError(t, e.Ledger.Post(ctx, nil, receivable(villageID, sourceID, 32000)))

	entry, lines, err := e.Ledger.EntryForSource(ctx, ledgerdomain.SourceTypeBill, sourceID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Len(t, lines, 3)

	balance, err := e.Ledger.Balance(ctx, villageID, ledgerdomain.AccountCodeAccountsReceivable)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(32000).Equal(balance), balance.String())

	water, err := e.Ledger.Balance(ctx, villageID, ledgerdomain.AccountCodeRevenueWater)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-25000).Equal(water), water.String())
}

func TestPost_InsideCallerTransactionRollsBack(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	villageID := uuid.New()
	sourceID := e.GenID.Generate()

	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := e.Ledger.Post(ctx, tx, receivable(villageID, sourceID, 19500)); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	entry, _, err := e.Ledger.EntryForSource(ctx, ledgerdomain.SourceTypeBill, sourceID)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPost_Validation(t *testing.T) {
	e := testutil.NewEnv(t)
	ctx := context.Background()
	villageID := uuid.New()

	req := receivable(uuid.Nil, e.GenID.Generate(), 1000)
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrInvalidVillage)

	req = receivable(villageID, e.GenID.Generate(), 10000)
	req.SourceType = "refund"
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrInvalidSourceType)

	req = receivable(villageID, 0, 10000)
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrInvalidSourceID)

	req = receivable(villageID, e.GenID.Generate(), 10000)
	req.Lines = req.Lines[:1]
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrInvalidEntryLines)

	req = receivable(villageID, e.GenID.Generate(), 10000)
	req.Lines[1].AccountCode = "petty_cash"
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrInvalidAccount)

	req = receivable(villageID, e.GenID.Generate(), 10000)
	req.Lines[2].Amount = decimal.NewFromInt(6000)
	assert.ErrorIs(t, e.Ledger.Post(ctx, nil, req), ledgerdomain.ErrUnbalancedEntry)

	_, err := e.Ledger.Balance(ctx, villageID, "petty_cash")
	assert.ErrorIs(t, err, ledgerdomain.ErrInvalidAccount)
}
