// Package storage persists canonical events and implements the upsert that
// keeps the collection free of duplicates.
//
// An incoming event is matched against stored ones by its id or, for records
// written under an older identity scheme, by its exact title and start. A
// match is replaced in place and re-keyed to the canonical id; everything
// else is inserted. Three backends share these semantics: MemoryStore, a
// JSON snapshot FileStore and PostgresStore.
package storage
