package graph

import "github.com/ianremillard/ccmux/internal/detect"

// DefaultRegistryFactory builds the standard detector set for a freshly
// spawned pane: a named Claude detector first (so it wins the confidence
// tie-break), then the generic low-confidence fallback.
func DefaultRegistryFactory() *detect.Registry {
	return detect.NewRegistry(detect.NewClaudeDetector(), detect.NewGenericAgentDetector())
}
