// Package service contains the application's use case orchestration layer.
// The import service owns the lifecycle of import jobs: it creates them,
// schedules pipeline runs through the event emitter, executes the staged
// pipeline when the task runner calls back in, and serializes racing apply,
// cancel and retry requests through compare-and-swap status updates.
package service
