package gateway

import (
	"encoding/json"
	"sort"
)

// extractMessage pulls the user-facing text out of an error body.
// `detail` wins; otherwise the first message of a field or list error is used.
// The text itself is never interpreted.
func extractMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err == nil {
		if raw, ok := obj["detail"]; ok {
			if msg := firstString(raw); msg != "" {
				return msg
			}
		}
		if raw, ok := obj["non_field_errors"]; ok {
			if msg := firstString(raw); msg != "" {
				return msg
			}
		}

		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if msg := firstString(obj[key]); msg != "" {
				return msg
			}
		}
		return ""
	}

	return firstString(body)
}

func firstString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if msg := firstString(item); msg != "" {
				return msg
			}
		}
	}
	return ""
}
