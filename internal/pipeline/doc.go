// Package pipeline drives one run over the configured sources.
//
// Sources are processed one at a time in the configured order. Each source runs inside
// a failure boundary: an unknown keyword, a fetch error or a panic in an adapter is
// recorded on that source's result and the driver moves on to the next source.
package pipeline
