// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import "context"

// PluginCapabilities describes the config keys a plugin accepts, used by
// the API's config validator to reject unsupported parameters with a 400
// response naming the backend and the reason.
type PluginCapabilities struct {
	Backend    string                          `json:"backend"`
	Wired      bool                            `json:"wired"`
	Reason     string                          `json:"reason,omitempty"`
	Parameters map[string]PluginParameterRange `json:"parameters"`
}

// PluginParameterRange describes the accepted range for one config key.
type PluginParameterRange struct {
	Type string      `json:"type"`
	Min  interface{} `json:"min,omitempty"`
	Max  interface{} `json:"max,omitempty"`
}

// RunResult is what a Plugin.Run returns to the executor.
type RunResult struct {
	Success      bool
	ArtifactPath string
	Samples      []string
	Error        string
}

// CancelToken is polled cooperatively by a plugin roughly once per second.
// The plugin must return within 10 seconds of IsSet() becoming true.
type CancelToken interface {
	IsSet() bool
}

// Plugin is an external collaborator that performs the actual GPU work,
// invoked by the executor through the capabilities()/run() contract.
type Plugin interface {
	Capabilities() PluginCapabilities
	Run(ctx context.Context, config map[string]interface{}, logger JobLogger, cancel CancelToken) (RunResult, error)
}
