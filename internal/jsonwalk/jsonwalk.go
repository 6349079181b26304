// Package jsonwalk walks decoded JSON/YAML-like values.
//
// Values are the closed variant produced by encoding/json and yaml.v3
// unmarshaling into any: nil, bool, numbers, string, []any, and
// map[string]any (plus map[any]any from older YAML decoders). The walk is
// schema-agnostic on purpose: the settings tree it scans has no fixed shape,
// and secret references can sit at any depth of an auth payload.
package jsonwalk

// Strings visits every string leaf of v, depth-first. Map keys are not
// visited; only values. Scalars of other types and unknown container types
// are skipped.
func Strings(v any, visit func(string)) {
	switch val := v.(type) {
	case string:
		visit(val)
	case []any:
		for _, item := range val {
			Strings(item, visit)
		}
	case map[string]any:
		for _, item := range val {
			Strings(item, visit)
		}
	case map[any]any:
		for _, item := range val {
			Strings(item, visit)
		}
	}
}
