// Package domain defines the core business entities of the import pipeline:
// the import job and its state machine, the draft curriculum produced by
// synthesis, and the permanent curriculum entities created on apply.
package domain
