package db

import "encoding/json"

// marshalJSONB encodes v for a JSONB column write, falling back to an
// empty object on a marshal error rather than failing the whole insert
// (evidence/breakdown payloads are best-effort enrichment, not the
// record of truth).
func marshalJSONB(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func unmarshalJSONB(raw []byte, v any) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, v)
}
