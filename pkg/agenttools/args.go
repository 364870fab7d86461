package agenttools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/routa-ai/routa/pkg/coordination"
)

// Argument extraction helpers. Arguments arrive as map[string]interface{}
// either from the typed A2A surface or rebuilt by the text-based dispatcher,
// so every accessor tolerates both native types and their string forms.

func stringArg(args map[string]interface{}, name string) (string, error) {
	value, err := optionalStringArg(args, name)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", coordination.NewError(coordination.KindBadInput, "missing required argument %q", name)
	}
	return value, nil
}

func optionalStringArg(args map[string]interface{}, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", nil
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case fmt.Stringer:
		return strings.TrimSpace(v.String()), nil
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v)), nil
	}
}

func intArg(args map[string]interface{}, name string, fallback int) int {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

func boolArg(args map[string]interface{}, name string, fallback bool) bool {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return fallback
}

func stringListArg(args map[string]interface{}, name string) []string {
	raw, ok := args[name]
	if !ok || raw == nil {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return items
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}
