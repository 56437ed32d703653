package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, raw string) snapshotDocument {
	t.Helper()

	doc, err := decodeSnapshotDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestDecodeSnapshotDocument_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[]`, `"snapshot"`, `42`, `not json at all`} {
		_, err := decodeSnapshotDocument([]byte(raw))
		require.Error(t, err, raw)
		assert.Equal(t, ErrKindInvalidPayload, KindOf(err))
	}
}

func TestValidateSnapshot(t *testing.T) {
	validMeta := `"metadata":{"backupType":"full","timestamp":"2026-08-01T10:00:00Z","schemaVersion":2,"appVersion":"test"}`

	tests := []struct {
		name         string
		raw          string
		wantProblems int
	}{
		{
			name:         "minimal valid snapshot",
			raw:          `{` + validMeta + `}`,
			wantProblems: 0,
		},
		{
			name:         "full valid snapshot",
			raw:          `{"members":[],"sessions":[],"payments":[],"trainers":[],"packages":[],"settings":{},` + validMeta + `}`,
			wantProblems: 0,
		},
		{
			name:         "missing metadata",
			raw:          `{"members":[]}`,
			wantProblems: 1,
		},
		{
			name:         "zero timestamp",
			raw:          `{"metadata":{"backupType":"full","schemaVersion":2}}`,
			wantProblems: 1,
		},
		{
			name:         "schema version from the future",
			raw:          `{"metadata":{"backupType":"full","timestamp":"2026-08-01T10:00:00Z","schemaVersion":99}}`,
			wantProblems: 1,
		},
		{
			name:         "collection is not an array",
			raw:          `{"members":{"oops":true},` + validMeta + `}`,
			wantProblems: 1,
		},
		{
			name:         "settings is not an object",
			raw:          `{"settings":[1,2,3],` + validMeta + `}`,
			wantProblems: 1,
		},
		{
			name:         "multiple violations reported together",
			raw:          `{"members":"nope","payments":7,"settings":[],"metadata":{"backupType":"full","schemaVersion":0}}`,
			wantProblems: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := validateSnapshot(mustDoc(t, tt.raw))
			assert.Len(t, problems, tt.wantProblems, "%v", problems)
		})
	}
}
