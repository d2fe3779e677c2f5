package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkspacesConfig holds workspace definitions (read/write). Each workspace
// is an isolated set of imported tables, links and groups.
type WorkspacesConfig struct {
	Workspaces map[string]WorkspaceEntry `yaml:"workspaces,omitempty"`
}

// WorkspaceEntry holds configuration for a specific workspace.
type WorkspaceEntry struct {
	Description string `yaml:"description,omitempty"`
}

// LoadWorkspaces loads workspace configuration from the .sheetlink directory.
func LoadWorkspaces(basePath string) (*WorkspacesConfig, error) {
	data, err := os.ReadFile(WorkspacesFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &WorkspacesConfig{
			Workspaces: make(map[string]WorkspaceEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading workspaces file: %w", err)
	}

	var cfg WorkspacesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing workspaces file: %w", err)
	}

	if cfg.Workspaces == nil {
		cfg.Workspaces = make(map[string]WorkspaceEntry)
	}

	return &cfg, nil
}

// Save writes the workspaces configuration to the workspaces file.
func (w *WorkspacesConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("marshaling workspaces config: %w", err)
	}

	if err := os.WriteFile(WorkspacesFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing workspaces file: %w", err)
	}

	return nil
}

// Add adds a workspace to the configuration.
func (w *WorkspacesConfig) Add(name string, entry WorkspaceEntry) {
	if w.Workspaces == nil {
		w.Workspaces = make(map[string]WorkspaceEntry)
	}
	w.Workspaces[name] = entry
}

// Remove removes a workspace from the configuration.
func (w *WorkspacesConfig) Remove(name string) {
	if w.Workspaces != nil {
		delete(w.Workspaces, name)
	}
}

// Names returns the workspace names in sorted order.
func (w *WorkspacesConfig) Names() []string {
	names := make([]string, 0, len(w.Workspaces))
	for name := range w.Workspaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a specific workspace.
func (w *WorkspacesConfig) Get(name string) (*WorkspaceEntry, error) {
	if len(w.Workspaces) == 0 {
		return nil, errors.New("no workspaces configured")
	}

	entry, ok := w.Workspaces[name]
	if !ok {
		names := w.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("workspace %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// Exists checks if a workspace exists in the configuration.
func (w *WorkspacesConfig) Exists(name string) bool {
	if w.Workspaces == nil {
		return false
	}
	_, ok := w.Workspaces[name]
	return ok
}

// Resolve picks the workspace to use: the requested one, or the only one
// configured when none is requested.
func (w *WorkspacesConfig) Resolve(requested string) (string, error) {
	if requested != "" {
		if _, err := w.Get(requested); err != nil {
			return "", err
		}
		return requested, nil
	}
	switch len(w.Workspaces) {
	case 0:
		return "", errors.New("no workspaces configured (run 'sheetlink workspaces create <name>')")
	case 1:
		return w.Names()[0], nil
	default:
		return "", fmt.Errorf("multiple workspaces configured, use --workspace (available: %s)", strings.Join(w.Names(), ", "))
	}
}

// WorkspacesExists checks if a workspaces file exists in the given path.
func WorkspacesExists(basePath string) bool {
	_, err := os.Stat(WorkspacesFilePath(basePath))
	return err == nil
}
