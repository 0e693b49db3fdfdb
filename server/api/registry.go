package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/veridoc/idproof/imt"
	"github.com/veridoc/idproof/smt"
)

// TreeRegistry stores imported registry snapshots by name. Imports replace
// whole trees atomically; proof generation reads under a shared lock, so
// in-flight requests always see one consistent snapshot.
type TreeRegistry struct {
	mu     sync.RWMutex
	dense  map[string]*imt.Tree
	sparse map[string]*smt.Tree
}

// NewTreeRegistry creates an empty registry.
func NewTreeRegistry() *TreeRegistry {
	return &TreeRegistry{
		dense:  make(map[string]*imt.Tree),
		sparse: make(map[string]*smt.Tree),
	}
}

// Dense returns the named dense tree.
func (tr *TreeRegistry) Dense(name string) (*imt.Tree, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if t, ok := tr.dense[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("dense tree %s not found", name)
}

// Sparse returns the named sparse tree.
func (tr *TreeRegistry) Sparse(name string) (*smt.Tree, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	if t, ok := tr.sparse[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("sparse tree %s not found", name)
}

// SetDense installs or replaces a dense tree snapshot.
func (tr *TreeRegistry) SetDense(name string, t *imt.Tree) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.dense[name] = t
}

// SetSparse installs or replaces a sparse tree snapshot.
func (tr *TreeRegistry) SetSparse(name string, t *smt.Tree) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.sparse[name] = t
}

// TreeInfo describes one loaded tree.
type TreeInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Size int    `json:"size"`
	Root string `json:"root"`
}

// List returns every loaded tree.
func (tr *TreeRegistry) List() []TreeInfo {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	infos := make([]TreeInfo, 0, len(tr.dense)+len(tr.sparse))
	for name, t := range tr.dense {
		infos = append(infos, TreeInfo{Name: name, Kind: "dense", Size: t.Size(), Root: t.Root().String()})
	}
	for name, t := range tr.sparse {
		infos = append(infos, TreeInfo{Name: name, Kind: "sparse", Size: t.Size(), Root: t.Root().String()})
	}
	return infos
}

// ImportDense parses a dense snapshot and installs it under name.
func (tr *TreeRegistry) ImportDense(name string, data []byte) error {
	t, err := imt.Import(data)
	if err != nil {
		return err
	}
	tr.SetDense(name, t)
	return nil
}

// ImportSparse parses a sparse snapshot and installs it under name.
func (tr *TreeRegistry) ImportSparse(name string, data []byte) error {
	t, err := smt.Import(data)
	if err != nil {
		return err
	}
	tr.SetSparse(name, t)
	return nil
}

// LoadDir imports every snapshot file in dir. The tree name and kind come
// from the file name: <name>.imt.json for dense, <name>.smt.json for sparse.
// Other files are skipped. Returns the number of trees loaded.
func (tr *TreeRegistry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("snapshot directory: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var kind, name string
		switch {
		case strings.HasSuffix(e.Name(), ".imt.json"):
			kind, name = "dense", strings.TrimSuffix(e.Name(), ".imt.json")
		case strings.HasSuffix(e.Name(), ".smt.json"):
			kind, name = "sparse", strings.TrimSuffix(e.Name(), ".smt.json")
		default:
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return loaded, fmt.Errorf("snapshot %s: %w", e.Name(), err)
		}
		if kind == "dense" {
			err = tr.ImportDense(name, data)
		} else {
			err = tr.ImportSparse(name, data)
		}
		if err != nil {
			return loaded, fmt.Errorf("snapshot %s: %w", e.Name(), err)
		}
		loaded++
	}
	return loaded, nil
}
