package server

import (
	"bytes"
	"errors"

	"github.com/goccy/go-json"

	"github.com/lazypower/docrank/internal/engine"
)

var errBadBatch = errors.New("body must be a JSON object with items or a JSON array")

// DecodeBatch maps a learn payload onto an engine.Input. Three shapes are
// accepted:
//
//	{"items": [{"document": "a", "score": 0.9}, ...]}  -> ResultList
//	[{"document": "a", "score": 0.9}, ...]             -> Records
//	[["a", 0.9], ...]                                  -> Pairs
//
// A document is a name string or an object with a name field. Entries that
// do not fit are kept as empty records so the engine counts them as
// malformed without shifting the ranks of the entries after them.
func DecodeBatch(body []byte) (engine.Input, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	switch body[0] {
	case '{':
		var obj struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, errBadBatch
		}
		return engine.ResultList{Items: decodeRecords(obj.Items)}, nil

	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, errBadBatch
		}
		if listShape(raw) == '[' {
			return decodePairs(raw), nil
		}
		return engine.Records(decodeRecords(raw)), nil
	}
	return nil, errBadBatch
}

// listShape reports whether a top-level list holds pairs ('[') or records
// ('{'), judged by its first array or object element. Other elements are
// malformed entries and do not decide the shape.
func listShape(raw []json.RawMessage) byte {
	for _, msg := range raw {
		if b := firstByte(msg); b == '[' || b == '{' {
			return b
		}
	}
	return '{'
}

func decodeRecords(raw []json.RawMessage) []engine.Result {
	out := make([]engine.Result, len(raw))
	for i, msg := range raw {
		var rec struct {
			Document json.RawMessage `json:"document"`
			Score    *float64        `json:"score"`
		}
		if err := json.Unmarshal(msg, &rec); err != nil {
			continue
		}
		out[i] = engine.Result{Document: decodeDocument(rec.Document), Score: rec.Score}
	}
	return out
}

func decodePairs(raw []json.RawMessage) engine.Pairs {
	out := make(engine.Pairs, len(raw))
	for i, msg := range raw {
		var tuple []json.RawMessage
		if err := json.Unmarshal(msg, &tuple); err != nil || len(tuple) != 2 {
			continue
		}
		var score float64
		if err := json.Unmarshal(tuple[1], &score); err != nil {
			continue
		}
		out[i] = engine.Pair{Document: decodeDocument(tuple[0]), Score: score}
	}
	return out
}

// decodeDocument returns nil when msg is neither a name nor {"name": ...}.
func decodeDocument(msg json.RawMessage) engine.Document {
	switch firstByte(msg) {
	case '"':
		var name string
		if err := json.Unmarshal(msg, &name); err == nil && name != "" {
			return engine.Ref(name)
		}
	case '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(msg, &obj); err == nil && obj.Name != "" {
			return engine.Ref(obj.Name)
		}
	}
	return nil
}

func firstByte(msg json.RawMessage) byte {
	msg = bytes.TrimSpace(msg)
	if len(msg) == 0 {
		return 0
	}
	return msg[0]
}
