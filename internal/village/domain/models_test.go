package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVillageDueDate(t *testing.T) {
	end := time.Date(2025, time.March, 28, 17, 45, 0, 0, time.UTC)

	v := Village{OverdueThresholdDays: 10}
	assert.Equal(t, time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC), v.DueDate(end))

	v.OverdueThresholdDays = 0
	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), v.DueDate(end))

	jakarta := time.FixedZone("WIB", 7*60*60)
	late := time.Date(2025, time.March, 29, 2, 0, 0, 0, jakarta)
	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), v.DueDate(late))
}

func TestVillageFees(t *testing.T) {
	v := Village{DefaultAdminFee: decimal.NewFromInt(5000), DefaultMaintenanceFee: decimal.NewFromInt(2000)}

	admin, maintenance := v.Fees(nil, nil)
	assert.Equal(t, "5000", admin.String())
	assert.Equal(t, "2000", maintenance.String())

	zero := decimal.Zero
	override := decimal.NewFromInt(3000)
	admin, maintenance = v.Fees(&override, &zero)
	assert.Equal(t, "3000", admin.String())
	assert.True(t, maintenance.IsZero())
}
