package lock

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLockTimeout = errors.New("lock_timeout")
	ErrEmptyKey    = errors.New("lock key is empty")
)

// DefaultTTL bounds how long a crashed holder can block a key.
const DefaultTTL = 30 * time.Second

const retryInterval = 25 * time.Millisecond

//go:generate mockgen -source=lock.go -destination=./mocks/mock_locker.go -package=mocks

// Locker serializes critical sections by key. Release is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// TariffKey scopes schedule edits to one village (empty village means global).
func TariffKey(villageID string) string { return "pamdes:tariff:" + villageID }

func UsageKey(usageID string) string { return "pamdes:usage:" + usageID }

func BundleKey(bundleID string) string { return "pamdes:bundle:" + bundleID }

func BillKey(billID string) string { return "pamdes:bill:" + billID }

func VillageKey(villageID string) string { return "pamdes:village:" + villageID }

func CustomerKey(customerID string) string { return "pamdes:customer:" + customerID }
