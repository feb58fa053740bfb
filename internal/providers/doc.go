// Package providers defines the capability contract for external
// audio-recognition services and the shared result and error types the
// orchestrator consumes.
//
// Concrete clients live in subpackages (acrcloud, audd) and depend only on
// the types defined here, so the orchestrator and its tests can substitute
// fakes freely.
package providers
