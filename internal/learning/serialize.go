package learning

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/milekpl/zotero-ner/internal/domain"
)

// The three tables serialize as JSON arrays of [key, value] pairs (the
// skip set as a plain array of hashes) with keys sorted, so blobs are
// deterministic and diffable across backends.

func marshalMappings(m map[string]*domain.LearningMapping) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([][2]any, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, [2]any{k, m[k]})
	}
	return json.Marshal(entries)
}

func unmarshalMappings(blob []byte) (map[string]*domain.LearningMapping, error) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("decoding mapping table: %w", err)
	}
	out := make(map[string]*domain.LearningMapping, len(entries))
	for i, pair := range entries {
		if len(pair) != 2 {
			return nil, fmt.Errorf("mapping entry %d: want [key, value], got %d elements", i, len(pair))
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil {
			return nil, fmt.Errorf("mapping entry %d key: %w", i, err)
		}
		var m domain.LearningMapping
		if err := json.Unmarshal(pair[1], &m); err != nil {
			return nil, fmt.Errorf("mapping entry %d value: %w", i, err)
		}
		out[key] = &m
	}
	return out, nil
}

func marshalPairs(p map[string]domain.DistinctPairRecord) ([]byte, error) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([][2]any, 0, len(keys))
	for _, k := range keys {
		rec := p[k]
		entries = append(entries, [2]any{k, rec})
	}
	return json.Marshal(entries)
}

func unmarshalPairs(blob []byte) (map[string]domain.DistinctPairRecord, error) {
	var entries [][]json.RawMessage
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("decoding distinct-pair table: %w", err)
	}
	out := make(map[string]domain.DistinctPairRecord, len(entries))
	for i, pair := range entries {
		if len(pair) != 2 {
			return nil, fmt.Errorf("distinct-pair entry %d: want [key, value], got %d elements", i, len(pair))
		}
		var key string
		if err := json.Unmarshal(pair[0], &key); err != nil {
			return nil, fmt.Errorf("distinct-pair entry %d key: %w", i, err)
		}
		var rec domain.DistinctPairRecord
		if err := json.Unmarshal(pair[1], &rec); err != nil {
			return nil, fmt.Errorf("distinct-pair entry %d value: %w", i, err)
		}
		out[key] = rec
	}
	return out, nil
}

func marshalSkips(s map[string]struct{}) ([]byte, error) {
	hashes := make([]string, 0, len(s))
	for h := range s {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return json.Marshal(hashes)
}

func unmarshalSkips(blob []byte) (map[string]struct{}, error) {
	var hashes []string
	if err := json.Unmarshal(blob, &hashes); err != nil {
		return nil, fmt.Errorf("decoding skip-decision set: %w", err)
	}
	out := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		out[h] = struct{}{}
	}
	return out, nil
}
