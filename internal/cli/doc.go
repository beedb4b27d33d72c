// Package cli implements the command-line interface for event-ingest.
//
// The cli package provides the Cobra-based CLI: ingest normalizes fragment
// files into the store, list/show/delete/export read and edit the stored
// events, parse-date exercises the date cascade on a single phrase and
// watch re-runs ingest on a cron schedule while serving metrics.
package cli
