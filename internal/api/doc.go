// Package api contains the HTTP handlers, request and response models, and
// error mapping for the import pipeline's REST surface.
package api
