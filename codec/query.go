package codec

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// document answers field-path queries ("players/3/id", "newPos.x") against
// a JSON body. A body that does not parse behaves as an empty object, so
// every lookup reports absent instead of failing.
type document struct {
	root any
}

func parseDocument(body []byte) *document {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		return &document{}
	}
	return &document{root: root}
}

func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '.' })
}

func (d *document) lookup(path string) (any, bool) {
	cur := d.root
	for _, seg := range splitPath(path) {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Has reports whether path resolves to a non-null value.
func (d *document) Has(path string) bool {
	_, ok := d.lookup(path)
	return ok
}

// Uint extracts the first run of decimal digits of the value at path,
// skipping any leading non-digit characters.
func (d *document) Uint(path string) (uint64, bool) {
	v, ok := d.lookup(path)
	if !ok {
		return 0, false
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = t
	default:
		return 0, false
	}
	return leadingDigits(s)
}

// String returns the value at path truncated to max bytes.
func (d *document) String(path string, max int) (string, bool) {
	v, ok := d.lookup(path)
	if !ok {
		return "", false
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	if max > 0 && len(s) > max {
		s = s[:max]
	}
	return s, true
}

// Bool is true only for JSON true or the string "true".
func (d *document) Bool(path string) (bool, bool) {
	v, ok := d.lookup(path)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		return t == "true", true
	}
	return false, true
}

// first returns the first of paths that resolves.
func (d *document) first(paths ...string) string {
	for _, p := range paths {
		if d.Has(p) {
			return p
		}
	}
	return paths[0]
}

func leadingDigits(s string) (uint64, bool) {
	i := 0
	for i < len(s) && (s[i] < '0' || s[i] > '9') {
		i++
	}
	if i == len(s) {
		return 0, false
	}
	var n uint64
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if n > (math.MaxUint64-9)/10 {
			return math.MaxUint64, true
		}
		n = n*10 + uint64(s[i]-'0')
	}
	return n, true
}
