// Package blob holds the serialized form shared by every record store: the
// whole family collection as one JSON array.
package blob

import (
	"bytes"
	"encoding/json"
	"fmt"

	familydomain "cras-cadastro/internal/domain/family"
)

// DefaultKey is the key the collection lives under in every backend.
const DefaultKey = "families"

func Encode(families []familydomain.Family) ([]byte, error) {
	if families == nil {
		families = []familydomain.Family{}
	}
	data, err := json.Marshal(families)
	if err != nil {
		return nil, fmt.Errorf("encode families: %w", err)
	}
	return data, nil
}

// Decode treats an empty or null payload as an empty collection.
func Decode(data []byte) ([]familydomain.Family, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []familydomain.Family{}, nil
	}
	var families []familydomain.Family
	if err := json.Unmarshal(trimmed, &families); err != nil {
		return nil, fmt.Errorf("decode families: %w", err)
	}
	if families == nil {
		families = []familydomain.Family{}
	}
	return families, nil
}
