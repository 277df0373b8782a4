package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/smallbiznis/pamdes/internal/customer/domain"
	"github.com/smallbiznis/pamdes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_SequentialCodesPerVillage(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	first := env.Village(t, "Sukamaju")
	second := env.Village(t, "Mekarsari")

	a := env.Customer(t, first.ID, "Andi")
	b := env.Customer(t, first.ID, "Bayu")
	c := env.Customer(t, second.ID, "Citra")
	assert.Equal(t, "PAM0001", a.Code)
	assert.Equal(t, "PAM0002", b.Code)
	assert.Equal(t, "PAM0001", c.Code)

	found, err := env.Customers.GetByCode(ctx, first.ID, " pam0002 ")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	_, err = env.Customers.GetByCode(ctx, second.ID, "PAM0002")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_ConcurrentCodesAreUnique(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Customers.Create(ctx, domain.CreateRequest{VillageID: village.ID, Name: "Warga"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	resp, err := env.Customers.List(ctx, domain.ListRequest{VillageID: village.ID})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 6)
	seen := map[string]bool{}
	for _, c := range resp.Customers {
		assert.False(t, seen[c.Code], c.Code)
		seen[c.Code] = true
	}
	assert.True(t, seen["PAM0006"])
}

func TestCreate_Validation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")

	_, err := env.Customers.Create(ctx, domain.CreateRequest{VillageID: village.ID, Name: "  "})
	require.ErrorIs(t, err, domain.ErrInvalidName)
	_, err = env.Customers.Create(ctx, domain.CreateRequest{Name: "Andi"})
	require.ErrorIs(t, err, domain.ErrInvalidVillage)
	_, err = env.Customers.Create(ctx, domain.CreateRequest{VillageID: uuid.New(), Name: "Andi"})
	require.ErrorIs(t, err, domain.ErrInvalidVillage)
}

func TestList_FiltersAndPages(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	village := env.Village(t, "Sukamaju")
	for _, name := range []string{"Andi", "Bayu", "Citra"} {
		env.Customer(t, village.ID, name)
	}
	inactive := env.Customer(t, village.ID, "Dewi")
	_, err := env.Customers.SetStatus(ctx, inactive.ID, domain.StatusInactive)
	require.NoError(t, err)

	page, err := env.Customers.List(ctx, domain.ListRequest{VillageID: village.ID, Status: domain.StatusActive, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Customers, 2)
	assert.True(t, page.HasMore)

	next, err := env.Customers.List(ctx, domain.ListRequest{VillageID: village.ID, Status: domain.StatusActive, PageSize: 2, PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, next.Customers, 1)
	assert.Equal(t, "Citra", next.Customers[0].Name)
	assert.False(t, next.HasMore)

	byName, err := env.Customers.List(ctx, domain.ListRequest{VillageID: village.ID, Name: "DEW"})
	require.NoError(t, err)
	require.Len(t, byName.Customers, 1)
	assert.Equal(t, domain.StatusInactive, byName.Customers[0].Status)

	_, err = env.Customers.SetStatus(ctx, inactive.ID, "archived")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}
