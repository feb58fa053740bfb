// Command tracklist identifies the tracks played in a recorded DJ mix.
//
// The identify command slices the mix into overlapping segments, submits
// them to the configured recognition providers, and prints the reconciled
// tracklist. Cache and config subcommands manage the result cache and the
// configuration file.
package main
