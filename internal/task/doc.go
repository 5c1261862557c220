// Package task runs import pipeline work in the background. A TaskRunner
// owns a pool of workers fed from a buffered channel; the import service
// emits task request events, which the handler in this package turns into
// queued pipeline tasks. On startup the runner repairs jobs that a crash
// left in an active stage, marking them failed at that stage so the user
// can retry with a fresh credential.
package task
