// Package export renders a finished tracklist into the supported output
// formats: JSON for machine consumption, Markdown for humans, M3U for
// players, and CSV for spreadsheets.
package export
