package plugin

import (
	"strings"

	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// DenormalizeParamValue turns a stored parameter value into the list form
// used by panels. Multi-pick values are comma separated.
func DenormalizeParamValue(spec wdk.ParamSpec, raw string) []string {
	if !spec.AllowMultipleValues {
		return []string{raw}
	}
	values := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

// NormalizeParamValue is the inverse of DenormalizeParamValue.
func NormalizeParamValue(values []string) string {
	return strings.Join(values, ",")
}

// DefaultParamValues seeds a form from the specs' default values.
func DefaultParamValues(specs []wdk.ParamSpec) map[string][]string {
	values := make(map[string][]string, len(specs))
	for _, spec := range specs {
		values[spec.Name] = DenormalizeParamValue(spec, spec.DefaultValue)
	}
	return values
}

// CloneParamValues deep-copies a parameter value map.
func CloneParamValues(values map[string][]string) map[string][]string {
	if values == nil {
		return map[string][]string{}
	}
	dup := make(map[string][]string, len(values))
	for name, vs := range values {
		dup[name] = append([]string(nil), vs...)
	}
	return dup
}
