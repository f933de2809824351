// Package cli implements the command-line interface for chess-events.
//
// The cli package provides the Cobra-based CLI: "run" scrapes the configured sources,
// prints a report (text or JSON) and saves records to the configured sink, "sources"
// lists the registered sources and "parse-date" shows how a date fragment normalizes.
// Run settings are resolved through the config package, so those flags can also come
// from the config file or a CHESS_EVENTS_* environment variable. Output, sort and
// record filter flags apply to a single invocation.
package cli
