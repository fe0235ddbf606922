package authgw

import (
	"sort"
	"strconv"
)

// idFields are probed in order; the first non-empty match wins.
var idFields = []string{"user_id", "id", "sub", "userId", "_id", "uid"}

// ResolveUserID extracts the user id from an identity payload. A nested
// "user" object is searched before the top level. The id is returned as an
// opaque string.
func ResolveUserID(info UserInfo) (string, bool) {
	if nested, ok := info["user"].(map[string]any); ok {
		if id, found := probe(nested); found {
			return id, true
		}
	}
	return probe(info)
}

// PresentFields lists the payload's field names for the 401 diagnostic when
// no recognized id field is present. Nested user fields are reported as
// "user.<name>".
func PresentFields(info UserInfo) []string {
	fields := make([]string, 0, len(info))
	for k := range info {
		fields = append(fields, k)
	}
	if nested, ok := info["user"].(map[string]any); ok {
		for k := range nested {
			fields = append(fields, "user."+k)
		}
	}
	sort.Strings(fields)
	return fields
}

func probe(obj map[string]any) (string, bool) {
	for _, field := range idFields {
		if id := stringify(obj[field]); id != "" {
			return id, true
		}
	}
	return "", false
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers decode as float64; ids are whole numbers.
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return ""
	}
}
