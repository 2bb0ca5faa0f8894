package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidFieldType is returned when a known document field carries a value of the wrong JSON type.
var ErrInvalidFieldType = errors.New("invalid field type")

// ErrInvalidFieldName is returned for top-level keys that cannot be stored as a plain field name.
var ErrInvalidFieldName = errors.New("invalid field name")

// Attributes holds caller-supplied document fields that have no typed counterpart.
// They are stored verbatim and flattened into the top-level JSON object on output.
type Attributes map[string]any

// Patch is a partial document received from a client.
type Patch map[string]any

// reservedKeys are never taken from client payloads.
var reservedKeys = []string{"id", "_id"}

// DecodePatch decodes a JSON object into a Patch.
func DecodePatch(data []byte) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p == nil {
		p = Patch{}
	}
	return p, nil
}

// CheckFieldNames rejects empty keys, keys starting with '$' and keys containing '.'.
// Such keys would address nested paths or operators in a document store.
func (p Patch) CheckFieldNames() error {
	for k := range p {
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidFieldName, k)
		}
	}
	return nil
}

// clone returns a shallow copy of p without reserved keys.
func (p Patch) clone() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, k := range reservedKeys {
		delete(out, k)
	}
	return out
}

// popString removes key from p and returns its string value.
// A missing key or JSON null yields ok=false.
func (p Patch) popString(key string) (value string, ok bool, err error) {
	raw, present := p[key]
	if !present {
		return "", false, nil
	}
	delete(p, key)
	if raw == nil {
		return "", false, nil
	}
	s, isString := raw.(string)
	if !isString {
		return "", false, fmt.Errorf("%w: %q must be a string", ErrInvalidFieldType, key)
	}
	return s, true, nil
}

// popTime removes key from p and parses it as an RFC 3339 timestamp.
func (p Patch) popTime(key string) (value time.Time, ok bool, err error) {
	s, ok, err := p.popString(key)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q must be an RFC 3339 timestamp", ErrInvalidFieldType, key)
	}
	return t, true, nil
}

func (p Patch) attributes() Attributes {
	if len(p) == 0 {
		return Attributes{}
	}
	return Attributes(p)
}

// marshalFlat encodes known fields and attributes as one JSON object. Known fields win on key collisions.
func marshalFlat(known map[string]any, attrs Attributes) ([]byte, error) {
	doc := make(map[string]any, len(known)+len(attrs))
	for k, v := range attrs {
		doc[k] = v
	}
	for k, v := range known {
		doc[k] = v
	}
	return json.Marshal(doc)
}

// InsertResult is returned by create operations.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// UpdateResult is returned by update operations.
type UpdateResult struct {
	Acknowledged  bool  `json:"acknowledged"`
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}

// DeleteResult is returned by delete operations.
type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// ParseAttributes decodes stored attributes. Empty input yields an empty set.
func ParseAttributes(raw []byte) (Attributes, error) {
	attrs := Attributes{}
	if len(raw) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}
