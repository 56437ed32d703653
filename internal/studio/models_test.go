package studio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCollection(t *testing.T) {
	tests := []struct {
		name      string
		category  Category
		raw       string
		wantCount int
		wantErr   bool
	}{
		{
			name:      "members",
			category:  CategoryMembers,
			raw:       `[{"id":"m1","firstName":"Ada","lastName":"Lovelace","active":true},{"id":"m2","firstName":"Alan","lastName":"Turing","active":false}]`,
			wantCount: 2,
		},
		{
			name:      "empty array",
			category:  CategorySessions,
			raw:       `[]`,
			wantCount: 0,
		},
		{
			name:      "null collection decodes as empty",
			category:  CategoryTrainers,
			raw:       `null`,
			wantCount: 0,
		},
		{
			name:     "wrong shape",
			category: CategoryPayments,
			raw:      `{"not":"an array"}`,
			wantErr:  true,
		},
		{
			name:     "settings is not a collection",
			category: CategorySettings,
			raw:      `[]`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, canonical, err := DecodeCollection(tt.category, json.RawMessage(tt.raw))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			assert.NotEmpty(t, canonical)
		})
	}
}

func TestDecodeCollection_CanonicalizesNull(t *testing.T) {
	_, canonical, err := DecodeCollection(CategoryMembers, json.RawMessage("null"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(canonical))
}

func TestCategoryStoreKey(t *testing.T) {
	assert.Equal(t, "studio:members", CategoryMembers.StoreKey())
	assert.Equal(t, "studio:payments", CategoryPayments.StoreKey())
}

func TestMigrateCollections_V1Members(t *testing.T) {
	collections := map[string]json.RawMessage{
		string(CategoryMembers): json.RawMessage(
			`[{"id":"m1","name":"Ada Lovelace","email":"ada@example.com","active":true},
			  {"id":"m2","name":"Cher","active":false}]`),
	}

	migrated, err := MigrateCollections(collections, 1)
	require.NoError(t, err)

	count, canonical, err := DecodeCollection(CategoryMembers, migrated[string(CategoryMembers)])
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var members []Member
	require.NoError(t, json.Unmarshal(canonical, &members))
	assert.Equal(t, "Ada", members[0].FirstName)
	assert.Equal(t, "Lovelace", members[0].LastName)
	assert.Equal(t, "Cher", members[1].FirstName)
	assert.Empty(t, members[1].LastName)
}

func TestMigrateCollections_V1Payments(t *testing.T) {
	collections := map[string]json.RawMessage{
		string(CategoryPayments): json.RawMessage(
			`[{"id":"p1","memberId":"m1","amount":49.99,"currency":"USD"}]`),
	}

	migrated, err := MigrateCollections(collections, 1)
	require.NoError(t, err)

	var payments []Payment
	require.NoError(t, json.Unmarshal(migrated[string(CategoryPayments)], &payments))
	require.Len(t, payments, 1)
	assert.Equal(t, int64(4999), payments[0].AmountCents)
}

func TestMigrateCollections_CurrentVersionIsNoop(t *testing.T) {
	collections := map[string]json.RawMessage{
		string(CategoryMembers): json.RawMessage(`[{"id":"m1","firstName":"Ada","lastName":"Lovelace","active":true}]`),
	}

	migrated, err := MigrateCollections(collections, SchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, collections, migrated)
}

func TestMigrateCollections_UnsupportedVersion(t *testing.T) {
	_, err := MigrateCollections(map[string]json.RawMessage{}, 0)
	assert.Error(t, err)
}
