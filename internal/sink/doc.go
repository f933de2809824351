// Package sink persists validated records.
//
// A Sink receives every record of one source at a time and reports an Outcome per
// record, so a single failing row never hides the others. Implementations cover a
// PostgreSQL table, per-source JSON snapshots, an iCalendar feed and a dry run that
// only logs.
package sink
