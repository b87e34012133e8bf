package analysis

// BuildResultJSONSchema returns the JSON-Schema used when strict validation
// of model replies is enabled. Only presence of the requested keys is
// enforced.
func BuildResultJSONSchema() map[string]any {
	props := make(map[string]any, len(RequestedKeys))
	for _, k := range RequestedKeys {
		props[k] = map[string]any{}
	}
	required := make([]string, len(RequestedKeys))
	copy(required, RequestedKeys)

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
