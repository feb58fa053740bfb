// Package audio abstracts the normalized audio input the pipeline slices
// into segments. The pipeline only depends on the Source capability;
// FileSource provides the WAV-backed implementation used by the CLI.
package audio
