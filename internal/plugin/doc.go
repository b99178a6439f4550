// Package plugin holds the static table of step-analysis plugins.
//
// Each analysis type name maps to a form plugin and a result plugin. A
// plugin contributes the initial private UI state that is seeded into a
// panel when it is created, plus a renderer the front end uses to draw the
// form or the result. The state machine only ever reads the initial states;
// renderers are a front-end concern.
//
// The table is built once by Default (or NewRegistry plus Register) before
// any panel is created and is read-only afterwards, so lookups need no
// locking. Unknown type names resolve to the fallback plugins.
//
// The package also owns parameter value (de)normalisation, since the shape
// of a stored value is a form concern.
package plugin
