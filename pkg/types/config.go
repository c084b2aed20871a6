package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// ChunkSize is the number of records per bulk insert during import.
	// Zero means DefaultChunkSize.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultChunkSize is the import batch size used when none is configured.
const DefaultChunkSize = 50

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrChunkSizeInvalid = errors.New("chunk size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.ChunkSize < 0 {
		return ErrChunkSizeInvalid
	}
	return nil
}

// GetChunkSize returns the configured chunk size, or DefaultChunkSize.
func (c Config) GetChunkSize() int {
	if c.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return c.ChunkSize
}
