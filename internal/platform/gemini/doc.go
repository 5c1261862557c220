// Package gemini implements the generation.Capability interface using
// Google's Gemini API. Clients are constructed per call from the request's
// credential, so no API key ever lives on the adapter.
package gemini
