// Package studio defines the typed schema for the studio's persisted
// domain collections and the key layout they occupy in the key-value
// store.
package studio

import (
	"encoding/json"
	"fmt"
	"time"
)

// SchemaVersion is the current version of the persisted schema.
// Snapshots captured under an older version are migrated on restore.
const SchemaVersion = 2

// Category identifies one backed-up data collection.
type Category string

const (
	CategoryMembers  Category = "members"
	CategorySessions Category = "sessions"
	CategoryPayments Category = "payments"
	CategoryTrainers Category = "trainers"
	CategoryPackages Category = "packages"
	CategorySettings Category = "settings"
)

// CollectionOrder is the fixed order in which collection categories are
// gathered and restored. Settings are handled separately, always last.
var CollectionOrder = []Category{
	CategoryMembers,
	CategorySessions,
	CategoryPayments,
	CategoryTrainers,
	CategoryPackages,
}

// AllCategories lists every category included in a full snapshot.
var AllCategories = []Category{
	CategoryMembers,
	CategorySessions,
	CategoryPayments,
	CategoryTrainers,
	CategoryPackages,
	CategorySettings,
}

// SettingsKeyPrefix is the key-value store prefix under which
// individual application settings are stored.
const SettingsKeyPrefix = "settings:"

// StoreKey returns the key-value store key holding a collection
// category. Settings have no single key; see SettingsKeyPrefix.
func (c Category) StoreKey() string {
	return "studio:" + string(c)
}

// Member is a studio member record.
type Member struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	MembershipID string    `json:"membershipId,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
	Active       bool      `json:"active"`
}

// Trainer is a studio trainer record.
type Trainer struct {
	ID          string   `json:"id"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	RateCents   int64    `json:"rateCents,omitempty"`
}

// Session is a scheduled training session.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	TrainerID string    `json:"trainerId,omitempty"`
	MemberIDs []string  `json:"memberIds,omitempty"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	Capacity  int       `json:"capacity,omitempty"`
	Status    string    `json:"status,omitempty"`
}

// Payment is a recorded member payment.
type Payment struct {
	ID          string    `json:"id"`
	MemberID    string    `json:"memberId"`
	AmountCents int64     `json:"amountCents"`
	Currency    string    `json:"currency"`
	Method      string    `json:"method,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	PaidAt      time.Time `json:"paidAt"`
}

// ClassPackage is a purchasable bundle of sessions.
type ClassPackage struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	SessionCount int    `json:"sessionCount"`
	PriceCents   int64  `json:"priceCents"`
	ValidDays    int    `json:"validDays,omitempty"`
	Active       bool   `json:"active"`
}

// DecodeCollection parses raw JSON for a collection category, returning
// the item count and the canonical bytes to persist. A null or missing
// collection decodes as empty. Settings are not a collection and are
// rejected here.
func DecodeCollection(category Category, raw json.RawMessage) (int, []byte, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("[]")
	}

	switch category {
	case CategoryMembers:
		return decodeAs[Member](category, raw)
	case CategorySessions:
		return decodeAs[Session](category, raw)
	case CategoryPayments:
		return decodeAs[Payment](category, raw)
	case CategoryTrainers:
		return decodeAs[Trainer](category, raw)
	case CategoryPackages:
		return decodeAs[ClassPackage](category, raw)
	default:
		return 0, nil, fmt.Errorf("studio: %q is not a collection category", category)
	}
}

// CountCollection returns the item count for a stored collection value.
func CountCollection(category Category, raw json.RawMessage) (int, error) {
	count, _, err := DecodeCollection(category, raw)
	return count, err
}

func decodeAs[T any](category Category, raw json.RawMessage) (int, []byte, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, nil, fmt.Errorf("studio: decode %s collection: %w", category, err)
	}

	if items == nil {
		items = []T{}
	}

	canonical, err := json.Marshal(items)
	if err != nil {
		return 0, nil, fmt.Errorf("studio: encode %s collection: %w", category, err)
	}

	return len(items), canonical, nil
}
