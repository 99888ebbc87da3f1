package providers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SplitKey separates "name#.a.b" into the secret name and the field path.
func SplitKey(key string) (name, field string) {
	if i := strings.Index(key, "#"); i != -1 {
		return key[:i], key[i+1:]
	}
	return key, ""
}

// ExtractField walks a dotted path (".user.name") through a JSON object and
// returns the scalar at the end as a string.
func ExtractField(raw, path string) (string, error) {
	if !strings.HasPrefix(path, ".") {
		return "", fmt.Errorf("field path %q must start with '.'", path)
	}

	var current interface{}
	if err := json.Unmarshal([]byte(raw), &current); err != nil {
		return "", fmt.Errorf("value is not JSON: %w", err)
	}

	for _, part := range strings.Split(strings.TrimPrefix(path, "."), ".") {
		if part == "" {
			continue
		}
		obj, ok := current.(map[string]interface{})
		if !ok {
			return "", fmt.Errorf("cannot select %q from a non-object", part)
		}
		if current, ok = obj[part]; !ok {
			return "", fmt.Errorf("field %q not found", part)
		}
	}

	switch v := current.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("field %q is not a scalar", path)
}
