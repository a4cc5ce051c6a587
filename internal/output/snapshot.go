package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnapshotExcludeFields lists fields that differ between otherwise identical
// runs. Paths are dot-separated object keys.
var SnapshotExcludeFields = []string{
	"run.id",
	"run.durationNs",
	"run.createdAt",
	"durationNs",
	"createdAt",
}

// NormalizeForSnapshot removes time-varying fields for comparison
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	// Parse JSON into a map
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	// Remove excluded fields
	for _, field := range SnapshotExcludeFields {
		removeNestedField(parsed, field)
	}

	// Re-encode deterministically
	return DeterministicEncode(parsed)
}

// CompareSnapshots returns true if two documents are identical
// (ignoring time-varying fields)
func CompareSnapshots(a, b []byte) (bool, string) {
	// Normalize both snapshots
	normalizedA, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "failed to normalize snapshot A: " + err.Error()
	}

	normalizedB, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "failed to normalize snapshot B: " + err.Error()
	}

	// Compare byte-for-byte
	if !bytes.Equal(normalizedA, normalizedB) {
		return false, "snapshots differ"
	}

	return true, ""
}

// removeNestedField removes a nested field from a map using dot notation
// e.g., "run.durationNs" removes the "durationNs" field from the "run" object
func removeNestedField(data map[string]interface{}, path string) {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '.' })
	if len(parts) == 0 {
		return
	}

	// Navigate to the parent object
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]interface{})
		if !ok {
			return
		}
		current = next
	}

	// Remove the final field
	delete(current, parts[len(parts)-1])
}
