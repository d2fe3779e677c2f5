// Package handlers contains application use case handlers.
package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

// WorkspaceHandler manages the workspace registry in a project directory.
type WorkspaceHandler struct {
	basePath string
}

// NewWorkspaceHandler creates a handler rooted at basePath.
func NewWorkspaceHandler(basePath string) *WorkspaceHandler {
	return &WorkspaceHandler{basePath: basePath}
}

// CreateResult contains the result of creating a workspace.
type CreateResult struct {
	Name        string
	Initialized bool   // A default config was written
	ConfigPath  string // Path to config.yaml
}

// HandleCreate registers a workspace, writing the default config on first use.
func (h *WorkspaceHandler) HandleCreate(name, description string) (*CreateResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("workspace name is required")
	}

	result := &CreateResult{Name: name, ConfigPath: config.ConfigFilePath(h.basePath)}
	if !config.Exists(h.basePath) {
		if err := config.WriteDefault(h.basePath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		result.Initialized = true
	}

	workspaces, err := config.LoadWorkspaces(h.basePath)
	if err != nil {
		return nil, fmt.Errorf("loading workspaces: %w", err)
	}
	if workspaces.Exists(name) {
		return nil, fmt.Errorf("workspace %q already exists", name)
	}

	workspaces.Add(name, config.WorkspaceEntry{Description: description})
	if err := workspaces.Save(h.basePath); err != nil {
		return nil, fmt.Errorf("saving workspaces: %w", err)
	}
	return result, nil
}

// HandleList returns the registered workspaces.
func (h *WorkspaceHandler) HandleList() (*config.WorkspacesConfig, error) {
	return config.LoadWorkspaces(h.basePath)
}

// HandleDelete unregisters a workspace. Storage cleanup is left to the caller.
func (h *WorkspaceHandler) HandleDelete(name string) error {
	workspaces, err := config.LoadWorkspaces(h.basePath)
	if err != nil {
		return fmt.Errorf("loading workspaces: %w", err)
	}
	if !workspaces.Exists(name) {
		return fmt.Errorf("workspace %q not found", name)
	}

	workspaces.Remove(name)
	if err := workspaces.Save(h.basePath); err != nil {
		return fmt.Errorf("saving workspaces: %w", err)
	}
	return nil
}
