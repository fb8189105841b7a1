// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/loraforge/internal/interfaces"
	"github.com/ternarybob/loraforge/internal/models"
)

// mockPlugin is the deterministic stand-in backend selected when
// MODE=fast-test. It drives a short, fixed step count instead of touching
// a GPU, polling the cancel token every step the same way a real backend
// is required to.
type mockPlugin struct {
	jobType    models.JobType
	totalSteps int
	stepDelay  time.Duration
}

// newMockTrainingPlugin and newMockGenerationPlugin construct the two
// fast-test backends wired by the plugin registry.
func newMockTrainingPlugin() interfaces.Plugin {
	return &mockPlugin{jobType: models.JobTypeTraining, totalSteps: 10, stepDelay: 10 * time.Millisecond}
}

func newMockGenerationPlugin() interfaces.Plugin {
	return &mockPlugin{jobType: models.JobTypeGeneration, totalSteps: 4, stepDelay: 10 * time.Millisecond}
}

func (p *mockPlugin) Capabilities() interfaces.PluginCapabilities {
	return interfaces.PluginCapabilities{
		Backend: "mock",
		Wired:   true,
		Reason:  "fast-test deterministic backend, no GPU required",
		Parameters: map[string]interfaces.PluginParameterRange{
			"steps": {Type: "int", Min: 1, Max: 100},
		},
	}
}

func (p *mockPlugin) Run(ctx context.Context, config map[string]interface{}, logger interfaces.JobLogger, cancel interfaces.CancelToken) (interfaces.RunResult, error) {
	steps := p.totalSteps
	if raw, ok := config["steps"]; ok {
		if f, ok := raw.(float64); ok && int(f) > 0 {
			steps = int(f)
		}
	}

	samples := make([]string, 0, steps)
	for step := 1; step <= steps; step++ {
		if cancel.IsSet() {
			return interfaces.RunResult{Success: false, Error: "cancelled"}, nil
		}

		loss := 1.0 / float64(step)
		lr := 0.0001
		progressPct := float64(step) / float64(steps) * 100
		logger.Progress(models.StageTraining, step, steps, progressPct, &loss, &lr, nil, fmt.Sprintf("step %d/%d", step, steps))

		samplePath := fmt.Sprintf("step_%05d.png", step)
		logger.Sample(step, samplePath)
		samples = append(samples, samplePath)

		select {
		case <-ctx.Done():
			return interfaces.RunResult{Success: false, Error: "cancelled"}, nil
		case <-time.After(p.stepDelay):
		}
	}

	return interfaces.RunResult{
		Success:      true,
		ArtifactPath: fmt.Sprintf("%s.safetensors", p.jobType),
		Samples:      samples,
	}, nil
}
