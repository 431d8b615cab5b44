package matrix

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bastiangx/seedserve/internal/utils"
	"github.com/charmbracelet/log"
)

// Registry resolves matrix names to matrices. Built-ins are always available;
// other names are looked up as files in the data directory and cached once loaded.
type Registry struct {
	dir    string
	loaded map[string]*Matrix
	mu     sync.RWMutex
}

// NewRegistry creates a registry over dir. An empty dir serves built-ins only.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		loaded: make(map[string]*Matrix),
	}
}

// Dir returns the data directory of the registry.
func (r *Registry) Dir() string { return r.dir }

// Get returns the matrix called name. Names are case-insensitive.
func (r *Registry) Get(name string) (*Matrix, error) {
	return r.Resolve(name, "")
}

// Resolve returns the matrix called name restricted to alphabet.
// An empty alphabet keeps the full matrix.
func (r *Registry) Resolve(name, alphabet string) (*Matrix, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownMatrix)
	}
	cacheKey := key
	if alphabet != "" {
		cacheKey = key + "|" + alphabet
	}

	r.mu.RLock()
	m, ok := r.loaded[cacheKey]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.loaded[cacheKey]; ok {
		return m, nil
	}

	base, ok := r.loaded[key]
	if !ok {
		var err error
		base, err = r.load(key)
		if err != nil {
			return nil, err
		}
		r.loaded[key] = base
	}
	if alphabet == "" {
		return base, nil
	}

	restricted, err := base.Restrict(alphabet)
	if err != nil {
		return nil, err
	}
	r.loaded[cacheKey] = restricted
	return restricted, nil
}

// load finds key among the built-ins or the data directory. Callers hold mu.
func (r *Registry) load(key string) (*Matrix, error) {
	if fn, ok := builtins[key]; ok {
		return fn(), nil
	}

	for _, path := range r.files() {
		if strings.ToUpper(fileStem(path)) != key {
			continue
		}
		m, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.Debugf("Loaded matrix %s from %s", m.Name(), path)
		if !m.Symmetric() {
			log.Warnf("Matrix %s is not symmetric; neighbors score as Score(query, word)", m.Name())
		}
		return m, nil
	}

	if suggestion, ok := utils.Closest(key, r.names(), 3); ok {
		return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownMatrix, key, suggestion)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMatrix, key)
}

// files lists matrix files of the data directory in a stable order.
func (r *Registry) files() []string {
	if r.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		log.Debugf("Matrix dir %s not readable: %v", r.dir, err)
		return nil
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if DetectFileFormat(entry.Name()) == FormatUnknown {
			continue
		}
		files = append(files, filepath.Join(r.dir, entry.Name()))
	}
	sort.Strings(files)
	return files
}

// Names returns all resolvable matrix names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, name := range BuiltinNames() {
		add(name)
	}
	for _, path := range r.files() {
		add(strings.ToUpper(fileStem(path)))
	}
	sort.Strings(names)
	return names
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
