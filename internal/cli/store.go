package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/almanac/internal/logger"
	"github.com/mesh-intelligence/almanac/pkg/store"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

// openStore creates and attaches the configured backend. The caller must
// Detach it.
func (a *app) openStore() (types.Store, error) {
	if a.settings.Store.Backend == types.BackendMemory {
		logger.Warn("memory backend selected, changes are discarded on exit")
	}
	s, err := store.Open(a.settings.Store)
	if err != nil {
		return nil, sysError(err)
	}
	return s, nil
}

// withStore runs fn against an attached store and detaches it afterwards.
func (a *app) withStore(fn func(types.Store) error) (err error) {
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if derr := s.Detach(); derr != nil && err == nil {
			err = sysError(fmt.Errorf("detach backend: %w", derr))
		}
	}()
	return fn(s)
}

// readInput reads the named file, or standard input for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
