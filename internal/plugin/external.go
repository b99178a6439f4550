package plugin

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ExternalPayload is the result shape of analyses rendered by an external
// viewer.
type ExternalPayload struct {
	IframeBaseURL     string `json:"iframeBaseUrl"`
	IframeWidth       int    `json:"iframeWidth"`
	IframeHeight      int    `json:"iframeHeight"`
	DownloadURLBase   string `json:"downloadUrlBase"`
	DownloadPath      string `json:"downloadPath"`
	PropertiesURLBase string `json:"propertiesUrlBase"`
	AccessToken       string `json:"accessToken"`
	ContextHash       string `json:"contextHash"`
}

// QueryParam contributes one query parameter to the viewer URL.
type QueryParam struct {
	Key   string
	Value func(ResultProps, ExternalPayload) string
}

// DownloadURLParam points the viewer at the analysis resource download.
func DownloadURLParam(props ResultProps, p ExternalPayload) string {
	return fmt.Sprintf("%s/stepAnalysisResource.do?analysisId=%d&path=%s",
		p.DownloadURLBase, props.Config.AnalysisID, p.DownloadPath)
}

// PropertiesURLParam points the viewer at the analysis properties endpoint.
func PropertiesURLParam(props ResultProps, p ExternalPayload) string {
	return fmt.Sprintf("%s/users/current/steps/%d/analyses/%d/properties?accessToken=%s",
		p.PropertiesURLBase, props.Config.StepID, props.Config.AnalysisID, p.AccessToken)
}

// ContextHashParam passes the context hash. The viewer expects it escaped
// once more than the surrounding query string.
func ContextHashParam(_ ResultProps, p ExternalPayload) string {
	return url.QueryEscape(p.ContextHash)
}

// ExternalURL builds the viewer URL with the params in the given order.
func ExternalURL(props ResultProps, params []QueryParam) (string, ExternalPayload, error) {
	var payload ExternalPayload
	if err := json.Unmarshal(props.Result, &payload); err != nil {
		return "", ExternalPayload{}, fmt.Errorf("decode external result: %w", err)
	}
	if strings.TrimSpace(payload.IframeBaseURL) == "" {
		return "", payload, fmt.Errorf("external result has no iframeBaseUrl")
	}
	parts := make([]string, 0, len(params))
	for _, param := range params {
		parts = append(parts, param.Key+"="+url.QueryEscape(param.Value(props, payload)))
	}
	return payload.IframeBaseURL + "?" + strings.Join(parts, "&"), payload, nil
}

// ExternalResult renders analyses whose results live in an external viewer.
func ExternalResult(params ...QueryParam) ResultPlugin {
	return ResultPlugin{
		InitialResultUIState: UIState{},
		Render: func(props ResultProps) (string, error) {
			if props.Result.Empty() {
				return "", nil
			}
			link, payload, err := ExternalURL(props, params)
			if err != nil {
				return "", err
			}
			size := ""
			if payload.IframeWidth > 0 && payload.IframeHeight > 0 {
				size = " (" + strconv.Itoa(payload.IframeWidth) + "x" + strconv.Itoa(payload.IframeHeight) + ")"
			}
			return "Open in browser" + size + ":\n" + link, nil
		},
	}
}
