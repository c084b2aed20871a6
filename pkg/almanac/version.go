// Package almanac holds build metadata for the almanac command.
package almanac

// Version is the release version of the almanac command.
const Version = "0.1.0"
