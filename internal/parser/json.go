package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// JSONParser reads the first JSON object in the answer (fenced or bare) and flattens it
// to dotted keys. Label tokens are matched against keys by their plain text, so
// "**Gender:**" picks up a "Gender" key. Text without a JSON object yields only sentinels.
type JSONParser struct{}

func (JSONParser) Parse(raw string, labels LabelMap) map[string]string {
	fields := map[string]string{}
	if obj, ok := firstObject(raw); ok {
		flatten("", obj, fields)
	}

	for tok, key := range labels {
		plain := strings.TrimSpace(strings.Trim(tok, "*: "))
		for _, candidate := range []string{key, plain} {
			if v, ok := lookupFold(fields, candidate); ok && v != "" {
				fields[key] = v
				break
			}
		}
	}
	fillMissing(fields, labels)
	return fields
}

// FirstObject returns the first decodable JSON object in s, verbatim. Models often
// wrap their answer in prose or a ``` fence.
func FirstObject(s string) (json.RawMessage, bool) {
	for i := strings.IndexByte(s, '{'); i >= 0; {
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(s[i:])).Decode(&raw); err == nil {
			return raw, true
		}
		next := strings.IndexByte(s[i+1:], '{')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, false
}

func firstObject(s string) (map[string]any, bool) {
	raw, ok := FirstObject(s)
	if !ok {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

func flatten(prefix string, v any, out map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(joinKey(prefix, k), t[k], out)
		}
	case []any:
		for i, item := range t {
			flatten(prefix+"["+strconv.Itoa(i)+"]", item, out)
		}
	case nil:
		out[prefix] = ""
	case string:
		out[prefix] = strings.TrimSpace(t)
	default:
		out[prefix] = fmt.Sprint(t)
	}
}

func joinKey(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + "." + k
}

func lookupFold(fields map[string]string, key string) (string, bool) {
	if v, ok := fields[key]; ok {
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}
