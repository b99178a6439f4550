package plugin

import (
	"maps"
	"slices"
	"strings"

	"github.com/wdkclient/stepanalysis/internal/wdk"
)

// UIState is the private UI state a plugin keeps inside a panel.
type UIState map[string]any

// Clone returns a shallow copy so panels never share plugin state.
func (s UIState) Clone() UIState {
	if s == nil {
		return UIState{}
	}
	return maps.Clone(s)
}

// FormProps is what a form renderer receives.
type FormProps struct {
	HasParameters bool
	ParamSpecs    []wdk.ParamSpec
	ParamValues   map[string][]string
	UIState       UIState
	Errors        []string
}

// ResultProps is what a result renderer receives.
type ResultProps struct {
	Config  wdk.AnalysisConfig
	Result  wdk.Result
	UIState UIState
}

// FormPlugin renders the parameter form of an analysis type.
type FormPlugin struct {
	InitialFormUIState UIState
	Render             func(FormProps) string
}

// ResultPlugin renders the result of an analysis type.
type ResultPlugin struct {
	InitialResultUIState UIState
	Render               func(ResultProps) (string, error)
}

// Registry maps analysis type names to their plugins. It is populated at
// startup and only read afterwards.
type Registry struct {
	forms          map[string]FormPlugin
	results        map[string]ResultPlugin
	fallbackForm   FormPlugin
	fallbackResult ResultPlugin
}

// NewRegistry creates an empty registry whose lookups fall back to the
// given plugins.
func NewRegistry(fallbackForm FormPlugin, fallbackResult ResultPlugin) *Registry {
	if fallbackForm.Render == nil {
		fallbackForm.Render = RenderDefaultForm
	}
	if fallbackResult.Render == nil {
		fallbackResult.Render = RenderDefaultResult
	}
	return &Registry{
		forms:          make(map[string]FormPlugin),
		results:        make(map[string]ResultPlugin),
		fallbackForm:   fallbackForm,
		fallbackResult: fallbackResult,
	}
}

// Register binds an analysis type name to its plugins. A plugin without a
// renderer borrows the fallback renderer.
func (r *Registry) Register(name string, form FormPlugin, result ResultPlugin) {
	key := strings.TrimSpace(name)
	if form.Render == nil {
		form.Render = r.fallbackForm.Render
	}
	if result.Render == nil {
		result.Render = r.fallbackResult.Render
	}
	r.forms[key] = form
	r.results[key] = result
}

// LocateForm returns the form plugin for an analysis type. The returned
// initial state is a fresh copy.
func (r *Registry) LocateForm(name string) FormPlugin {
	form, ok := r.forms[strings.TrimSpace(name)]
	if !ok {
		form = r.fallbackForm
	}
	form.InitialFormUIState = form.InitialFormUIState.Clone()
	return form
}

// LocateResult returns the result plugin for an analysis type. The
// returned initial state is a fresh copy.
func (r *Registry) LocateResult(name string) ResultPlugin {
	result, ok := r.results[strings.TrimSpace(name)]
	if !ok {
		result = r.fallbackResult
	}
	result.InitialResultUIState = result.InitialResultUIState.Clone()
	return result
}

// Names lists the analysis types with a dedicated registration, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.forms))
}

// Default builds the registration table shipped with the client.
func Default() *Registry {
	r := NewRegistry(FormPlugin{InitialFormUIState: UIState{}}, ResultPlugin{InitialResultUIState: UIState{}})

	enrichmentForm := FormPlugin{InitialFormUIState: UIState{}}
	r.Register("go-enrichment", enrichmentForm, EnrichmentResult(goColumns))
	r.Register("pathway-enrichment", enrichmentForm, EnrichmentResult(pathwayColumns))
	r.Register("word-enrichment", enrichmentForm, EnrichmentResult(wordColumns))

	r.Register("transcript-length-dist", FormPlugin{InitialFormUIState: UIState{}}, ExternalResult(
		QueryParam{Key: "downloadUrl", Value: DownloadURLParam},
		QueryParam{Key: "propertiesUrl", Value: PropertiesURLParam},
	))
	r.Register("datasets-comparison", FormPlugin{InitialFormUIState: UIState{}}, ExternalResult(
		QueryParam{Key: "contextHash", Value: ContextHashParam},
		QueryParam{Key: "propertiesUrl", Value: PropertiesURLParam},
	))
	return r
}
