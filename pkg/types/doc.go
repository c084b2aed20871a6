// Package types defines the Store and Table interfaces, the canonical
// entity types, and the standard errors for the Almanac data store.
//
// Rows are stored as JSON documents keyed by their "id" field. The typed
// entities in this package describe the canonical shape of those documents
// and are what the format converter produces from foreign data.
package types
