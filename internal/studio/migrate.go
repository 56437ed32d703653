package studio

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// MigrateCollections upgrades raw category collections captured under
// an older schema version to the current one. The input map is keyed by
// category name; unknown keys pass through untouched. Settings entries
// are version-independent and never migrated.
func MigrateCollections(collections map[string]json.RawMessage, fromVersion int) (map[string]json.RawMessage, error) {
	if fromVersion >= SchemaVersion {
		return collections, nil
	}
	if fromVersion < 1 {
		return nil, fmt.Errorf("studio: unsupported schema version %d", fromVersion)
	}

	out := make(map[string]json.RawMessage, len(collections))
	for name, raw := range collections {
		out[name] = raw
	}

	for v := fromVersion; v < SchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, fmt.Errorf("studio: no migration from schema version %d", v)
		}
		if err := step(out); err != nil {
			return nil, fmt.Errorf("studio: migrate schema v%d to v%d: %w", v, v+1, err)
		}
	}

	return out, nil
}

// migrations maps a source version to the step that upgrades it by one.
var migrations = map[int]func(map[string]json.RawMessage) error{
	1: migrateV1toV2,
}

// Schema v1 stored a member's name as one field and payment amounts as
// fractional currency units.
type memberV1 struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	MembershipID string `json:"membershipId,omitempty"`
	JoinedAt     string `json:"joinedAt,omitempty"`
	Active       bool   `json:"active"`
}

type paymentV1 struct {
	ID        string  `json:"id"`
	MemberID  string  `json:"memberId"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Method    string  `json:"method,omitempty"`
	Reference string  `json:"reference,omitempty"`
	PaidAt    string  `json:"paidAt,omitempty"`
}

func migrateV1toV2(collections map[string]json.RawMessage) error {
	if raw, ok := collections[string(CategoryMembers)]; ok && len(raw) > 0 {
		var old []memberV1
		if err := json.Unmarshal(raw, &old); err != nil {
			return fmt.Errorf("decode v1 members: %w", err)
		}

		upgraded := make([]map[string]interface{}, 0, len(old))
		for _, m := range old {
			first, last := splitName(m.Name)
			entry := map[string]interface{}{
				"id":        m.ID,
				"firstName": first,
				"lastName":  last,
				"active":    m.Active,
			}
			if m.Email != "" {
				entry["email"] = m.Email
			}
			if m.Phone != "" {
				entry["phone"] = m.Phone
			}
			if m.MembershipID != "" {
				entry["membershipId"] = m.MembershipID
			}
			if m.JoinedAt != "" {
				entry["joinedAt"] = m.JoinedAt
			}
			upgraded = append(upgraded, entry)
		}

		data, err := json.Marshal(upgraded)
		if err != nil {
			return fmt.Errorf("encode migrated members: %w", err)
		}
		collections[string(CategoryMembers)] = data
	}

	if raw, ok := collections[string(CategoryPayments)]; ok && len(raw) > 0 {
		var old []paymentV1
		if err := json.Unmarshal(raw, &old); err != nil {
			return fmt.Errorf("decode v1 payments: %w", err)
		}

		upgraded := make([]map[string]interface{}, 0, len(old))
		for _, p := range old {
			entry := map[string]interface{}{
				"id":          p.ID,
				"memberId":    p.MemberID,
				"amountCents": int64(math.Round(p.Amount * 100)),
				"currency":    p.Currency,
			}
			if p.Method != "" {
				entry["method"] = p.Method
			}
			if p.Reference != "" {
				entry["reference"] = p.Reference
			}
			if p.PaidAt != "" {
				entry["paidAt"] = p.PaidAt
			}
			upgraded = append(upgraded, entry)
		}

		data, err := json.Marshal(upgraded)
		if err != nil {
			return fmt.Errorf("encode migrated payments: %w", err)
		}
		collections[string(CategoryPayments)] = data
	}

	return nil
}

func splitName(full string) (string, string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}

	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
