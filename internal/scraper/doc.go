// Package scraper provides HTTP fetching and per-source extraction of chess club meetings.
//
// Every supported source is described by a SourceConfig: its URL and character encoding,
// the selector for its structural units, how fields are laid out inside a unit and how its
// dates are written. One shared adapter turns any SourceConfig into validated records
// (fetch, parse, select units, extract, normalize dates, validate), and the Registry maps
// source keywords to adapters. Built-in sources cover the 8x8 Chess Club blog, the
// Kitasenju club's Shift_JIS page and the NCS tournament calendar.
package scraper
