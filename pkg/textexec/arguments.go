package textexec

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/routa-ai/routa/pkg/agenttools"
)

// rebuildArguments converts the call's string-valued arguments back into
// typed values according to the tool's parameter descriptors. Arguments for
// which no descriptor exists pass through as strings.
func rebuildArguments(info agenttools.ToolInfo, raw map[string]string) map[string]interface{} {
	types := make(map[string]string, len(info.Parameters))
	for _, param := range info.Parameters {
		types[param.Name] = param.Type
	}

	args := make(map[string]interface{}, len(raw))
	for name, value := range raw {
		args[name] = coerceValue(types[name], value)
	}
	return args
}

func coerceValue(paramType, value string) interface{} {
	switch paramType {
	case agenttools.TypeBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		return strings.EqualFold(strings.TrimSpace(value), "true")
	case agenttools.TypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n
		}
		return int64(0)
	case agenttools.TypeFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
		return float64(0)
	case agenttools.TypeList:
		var list []interface{}
		if err := json.Unmarshal([]byte(value), &list); err == nil {
			return list
		}
		// A bare value becomes a singleton list.
		return []interface{}{value}
	case agenttools.TypeObject:
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(value), &obj); err == nil {
			return obj
		}
		return value
	default:
		return value
	}
}
