// Package transfer moves whole datasets between a types.Store and the
// serialized JSON bundle.
//
// Importer replaces the contents of every table with the data in a bundle,
// converting foreign document shapes first. Exporter serializes every table
// into one bundle. Reset clears every table.
//
// An import is not atomic across tables. Tables are cleared before any new
// data is written, and records are written in chunks with a yield between
// them, so a failed import leaves the store empty or holding a prefix of
// the new data.
package transfer
