// Package file provides a file-based persistence implementation for
// workflows and execution records. Each entity is stored as one JSON
// document under the configured root directory.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bloomandco/automation/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file system.
type Persistence struct {
	root string

	// Serializes writes; file persistence is for development and tests,
	// not for contended production workloads.
	mu sync.RWMutex
}

// NewPersistence creates a new instance rooted at the given directory. A
// "file://" prefix on the root is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to clean up for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
