// Package generation defines the boundary between the import pipeline and
// external AI services. The Capability interface covers the two
// model-backed stages, analysis and plan generation; adapters live under
// internal/platform.
package generation
