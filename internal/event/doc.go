// Package event provides the record types and date handling for chess club meetings.
//
// The event package defines the canonical Record emitted by every source, the CalendarDate
// value with its reserved sentinel, the fault-tolerant date normalizer that turns
// loosely formatted Japanese date fragments into calendar dates, and the validator that
// decides whether an extracted candidate may become a Record. Record IDs are deterministic
// UUIDv5 values so that sinks can upsert across runs.
package event
