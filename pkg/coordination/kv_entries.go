package coordination

import (
	"encoding/base64"
	"encoding/json"
	"path"
)

// kvEntry mirrors a single element of a recursive KV GET response: the
// store base64-encodes values, per the Consul-like wire format this
// core targets.
type kvEntry struct {
	Key   string `json:"Key"`
	Value string `json:"Value"`
}

// decodeKVEntries parses a recursive KV listing and applies decode to
// each entry's (last path segment, decoded value), skipping entries
// that fail to parse as JSON or fail the caller's decode step. A
// malformed individual record is a Protocol error for that record only
// (spec.md §7): scheduling/listing proceeds with the remaining
// well-formed records, it never aborts the whole listing.
func decodeKVEntries[T any](body []byte, decode func(key string, value []byte) (T, error)) (map[string]T, error) {
	var entries []kvEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, protocolf("decodeKVEntries", err)
	}

	result := make(map[string]T, len(entries))
	for _, entry := range entries {
		if entry.Value == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(entry.Value)
		if err != nil {
			continue
		}
		key := path.Base(entry.Key)
		decoded, err := decode(key, raw)
		if err != nil {
			continue
		}
		result[key] = decoded
	}
	return result, nil
}
