package crypto

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonicalize encodes v as canonical JSON bytes: object keys sorted after
// NFC normalization, null object members dropped, integers only.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
	case string:
		return writeString(buf, value)
	case *string:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		return writeString(buf, *value)
	case bool:
		buf.WriteString(strconv.FormatBool(value))
	case int:
		buf.WriteString(strconv.FormatInt(int64(value), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(value, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(value, 10))
	case float32, float64:
		return ErrFloatNotAllowed
	case json.Number:
		return writeJSONNumber(buf, value)
	case []string:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		items := make([]any, len(value))
		for i, s := range value {
			items[i] = s
		}
		return writeSlice(buf, items)
	case []any:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		return writeSlice(buf, value)
	case map[string]any:
		return writeMap(buf, value)
	default:
		return ErrUnsupportedType
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	encoded, err := json.Marshal(norm.NFC.String(s))
	if err != nil {
		return err
	}
	buf.Write(encoded)
	return nil
}

func writeJSONNumber(buf *bytes.Buffer, n json.Number) error {
	if strings.ContainsAny(n.String(), ".eE") {
		return ErrFloatNotAllowed
	}
	value, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return ErrFloatNotAllowed
	}
	buf.WriteString(strconv.FormatInt(value, 10))
	return nil
}

func writeMap(buf *bytes.Buffer, m map[string]any) error {
	type entry struct {
		key   string
		value any
	}

	entries := make([]entry, 0, len(m))
	seen := make(map[string]struct{}, len(m))
	for key, value := range m {
		normalized := norm.NFC.String(key)
		if _, ok := seen[normalized]; ok {
			return ErrKeyCollision
		}
		seen[normalized] = struct{}{}
		if isNull(value) {
			continue
		}
		entries = append(entries, entry{key: normalized, value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(buf, e.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeValue(buf, e.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeSlice(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func isNull(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case *string:
		return value == nil
	case []string:
		return value == nil
	case []any:
		return value == nil
	case map[string]any:
		return value == nil
	default:
		return false
	}
}
