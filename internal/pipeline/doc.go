// Package pipeline turns raw fragments into canonical events and writes them
// to a store.
//
// Normalizer is pure: it parses dates, resolves the venue, classifies
// categories, extracts the price and computes the identity. Runner fans a
// batch out over a bounded worker pool, retries failed store writes and
// reports what happened to every fragment. A fragment that cannot be
// normalized is skipped and flagged for review; it never aborts the batch.
package pipeline
