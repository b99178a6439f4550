package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NoParametersMessage is shown in place of a form for analysis types
// without parameters.
const NoParametersMessage = "The analysis results will be shown below."

// RenderDefaultForm lists each visible parameter with its current value.
func RenderDefaultForm(props FormProps) string {
	var b strings.Builder
	for _, msg := range props.Errors {
		fmt.Fprintf(&b, "! %s\n", msg)
	}
	if !props.HasParameters {
		b.WriteString(NoParametersMessage)
		return b.String()
	}
	for _, spec := range props.ParamSpecs {
		if !spec.Visible() {
			continue
		}
		label := spec.DisplayName
		if label == "" {
			label = spec.Name
		}
		fmt.Fprintf(&b, "%s: %s\n", label, NormalizeParamValue(props.ParamValues[spec.Name]))
		if help := strings.TrimSpace(spec.Help); help != "" {
			fmt.Fprintf(&b, "    %s\n", help)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderDefaultResult pretty-prints the raw result payload.
func RenderDefaultResult(props ResultProps) (string, error) {
	if props.Result.Empty() {
		return "", nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, props.Result, "", "  "); err != nil {
		return "", fmt.Errorf("format result: %w", err)
	}
	return out.String(), nil
}
