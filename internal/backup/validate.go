package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"studiovault/internal/studio"
)

// snapshotDocument is the decoded wire form of a snapshot: category
// names and the settings object at the top level, plus a metadata
// block.
type snapshotDocument map[string]json.RawMessage

// decodeSnapshotDocument parses the raw snapshot bytes into the
// two-stage decode's first stage. It only requires valid JSON with an
// object root; structural problems are reported by validateSnapshot.
func decodeSnapshotDocument(data []byte) (snapshotDocument, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewInvalidPayloadError("snapshot is not a JSON object", err)
	}
	return doc, nil
}

// metadata decodes the snapshot's metadata block.
func (d snapshotDocument) metadata() (*SnapshotMetadata, error) {
	raw, ok := d["metadata"]
	if !ok {
		return nil, NewInvalidPayloadError("snapshot has no metadata block", nil)
	}

	var meta SnapshotMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, NewInvalidPayloadError("snapshot metadata is malformed", err)
	}
	return &meta, nil
}

// validateSnapshot checks the structure of a decoded snapshot before
// any data is written back. All violations are collected so the caller
// can report them together.
func validateSnapshot(doc snapshotDocument) []string {
	var problems []string

	meta, err := doc.metadata()
	if err != nil {
		problems = append(problems, err.Error())
	} else {
		if meta.Timestamp.IsZero() {
			problems = append(problems, "metadata: timestamp is missing or zero")
		}
		if meta.SchemaVersion < 1 {
			problems = append(problems, fmt.Sprintf("metadata: schema version %d is invalid", meta.SchemaVersion))
		}
		if meta.SchemaVersion > studio.SchemaVersion {
			problems = append(problems, fmt.Sprintf("metadata: schema version %d is newer than supported version %d", meta.SchemaVersion, studio.SchemaVersion))
		}
		if meta.Timestamp.After(time.Now().Add(24 * time.Hour)) {
			problems = append(problems, "metadata: timestamp is in the future")
		}
	}

	for _, category := range studio.CollectionOrder {
		raw, ok := doc[string(category)]
		if !ok {
			// Restore skips absent collections; not a violation.
			continue
		}
		if _, _, err := studio.DecodeCollection(category, raw); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", category, err))
		}
	}

	if raw, ok := doc[string(studio.CategorySettings)]; ok {
		var settings map[string]json.RawMessage
		if err := json.Unmarshal(raw, &settings); err != nil {
			problems = append(problems, "settings: not a JSON object")
		}
	}

	return problems
}
