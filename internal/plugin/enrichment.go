package plugin

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss/table"
)

// Column maps a result field to a table header.
type Column struct {
	Key    string
	Header string
}

var (
	goColumns = []Column{
		{Key: "goId", Header: "GO ID"},
		{Key: "goTerm", Header: "GO Term"},
		{Key: "resultGenes", Header: "Genes in result"},
		{Key: "bgdGenes", Header: "Genes in background"},
		{Key: "foldEnrich", Header: "Fold enrichment"},
		{Key: "pValue", Header: "P-value"},
		{Key: "benjamini", Header: "Benjamini"},
	}
	pathwayColumns = []Column{
		{Key: "pathwayId", Header: "Pathway ID"},
		{Key: "pathwayName", Header: "Pathway"},
		{Key: "resultGenes", Header: "Genes in result"},
		{Key: "bgdGenes", Header: "Genes in background"},
		{Key: "foldEnrich", Header: "Fold enrichment"},
		{Key: "pValue", Header: "P-value"},
	}
	wordColumns = []Column{
		{Key: "word", Header: "Word"},
		{Key: "descrip", Header: "Description"},
		{Key: "resultGenes", Header: "Genes in result"},
		{Key: "bgdGenes", Header: "Genes in background"},
		{Key: "foldEnrich", Header: "Fold enrichment"},
		{Key: "pValue", Header: "P-value"},
	}
)

// UI state keys used by the enrichment result plugin.
const (
	SortKeyState       = "sortKey"
	SortAscendingState = "sortAscending"
)

type enrichmentPayload struct {
	ResultData []map[string]any `json:"resultData"`
}

// EnrichmentResult renders enrichment rows as a table sorted by the
// plugin's UI state (p-value ascending initially).
func EnrichmentResult(columns []Column) ResultPlugin {
	return ResultPlugin{
		InitialResultUIState: UIState{SortKeyState: "pValue", SortAscendingState: true},
		Render: func(props ResultProps) (string, error) {
			if props.Result.Empty() {
				return "", nil
			}
			var payload enrichmentPayload
			if err := json.Unmarshal(props.Result, &payload); err != nil {
				return "", fmt.Errorf("decode enrichment result: %w", err)
			}
			if len(payload.ResultData) == 0 {
				return "No enrichment found.", nil
			}
			rows := payload.ResultData
			sortRows(rows, props.UIState)

			headers := make([]string, len(columns))
			for i, col := range columns {
				headers[i] = col.Header
			}
			t := table.New().Headers(headers...)
			for _, row := range rows {
				cells := make([]string, len(columns))
				for i, col := range columns {
					cells[i] = cellText(row[col.Key])
				}
				t.Row(cells...)
			}
			return t.Render(), nil
		},
	}
}

func sortRows(rows []map[string]any, state UIState) {
	key, _ := state[SortKeyState].(string)
	if key == "" {
		return
	}
	ascending := true
	if asc, ok := state[SortAscendingState].(bool); ok {
		ascending = asc
	}
	sort.SliceStable(rows, func(i, j int) bool {
		less := compareCells(rows[i][key], rows[j][key])
		if ascending {
			return less < 0
		}
		return less > 0
	})
}

func compareCells(a, b any) int {
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	as, bs := cellText(a), cellText(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', 4, 64)
	default:
		return fmt.Sprint(x)
	}
}
