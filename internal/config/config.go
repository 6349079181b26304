// Package config is the settings layer endpoints live in: a directory of
// YAML files, one per scope, mirroring the host application's global /
// workspace / per-folder settings levels.
//
//	<dir>/global.yaml
//	<dir>/workspace.yaml
//	<dir>/folders/<name>.yaml
//
// Settings are the single source of truth for which secret references are
// live; the secure store only holds values. Reads and writes here are plain
// file I/O against a fresh snapshot each call, matching the read-modify-write
// discipline the migration procedures rely on.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smallmain/unichat-secrets/internal/auth"
	ucerrors "github.com/smallmain/unichat-secrets/internal/errors"
	"github.com/smallmain/unichat-secrets/internal/logging"
)

// Scope identifiers used by Inspect.
const (
	ScopeGlobal    = "global"
	ScopeWorkspace = "workspace"
	scopeFolder    = "folder:" // + folder name
)

const foldersDir = "folders"

// Store reads and writes the scoped endpoints settings.
type Store struct {
	dir    string
	logger *logging.Logger
}

// NewStore creates a settings store rooted at dir.
func NewStore(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.New(false, true)
	}
	return &Store{dir: dir, logger: logger}
}

// settingsFile is the on-disk shape of every scope file.
type settingsFile struct {
	Endpoints []any `yaml:"endpoints"`
}

func (s *Store) scopePath(scope string) string {
	switch {
	case scope == ScopeGlobal:
		return filepath.Join(s.dir, "global.yaml")
	case scope == ScopeWorkspace:
		return filepath.Join(s.dir, "workspace.yaml")
	case strings.HasPrefix(scope, scopeFolder):
		return filepath.Join(s.dir, foldersDir, strings.TrimPrefix(scope, scopeFolder)+".yaml")
	default:
		return ""
	}
}

func (s *Store) readScope(scope string) ([]any, error) {
	path := s.scopePath(scope)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ucerrors.UserError{
			Message:    fmt.Sprintf("Failed to read settings for scope %s", scope),
			Details:    err.Error(),
			Suggestion: "Check file permissions on the settings directory",
			Err:        err,
		}
	}

	var file settingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, ucerrors.ConfigError{
			Field:      scope,
			Message:    "invalid YAML syntax in settings file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	return file.Endpoints, nil
}

func (s *Store) writeScope(scope string, endpoints []any) error {
	path := s.scopePath(scope)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(settingsFile{Endpoints: endpoints})
	if err != nil {
		return err
	}
	// Settings hold references, never secret values; 0600 regardless.
	return os.WriteFile(path, data, 0o600)
}

// folderScopes lists the folder scope identifiers present on disk.
func (s *Store) folderScopes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, foldersDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var scopes []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		scopes = append(scopes, scopeFolder+strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(scopes)
	return scopes, nil
}

// owningScope is the scope the effective endpoints list is read from and
// written back to: workspace when it holds a non-empty list, else global.
// Folder scopes are never the owning scope; they are still visited by
// Inspect so folder-held references stay protected from cleanup.
func (s *Store) owningScope() (string, error) {
	endpoints, err := s.readScope(ScopeWorkspace)
	if err != nil {
		return "", err
	}
	if len(endpoints) > 0 {
		return ScopeWorkspace, nil
	}
	return ScopeGlobal, nil
}

// RawEndpoints returns the effective endpoints list as an untyped tree,
// exactly as persisted.
func (s *Store) RawEndpoints() ([]any, error) {
	scope, err := s.owningScope()
	if err != nil {
		return nil, err
	}
	return s.readScope(scope)
}

// SetRawEndpoints writes raw back to the scope it is effective in.
func (s *Store) SetRawEndpoints(raw []any) error {
	scope, err := s.owningScope()
	if err != nil {
		return err
	}
	return s.writeScope(scope, raw)
}

// Endpoints returns the effective endpoints list in typed form. Entries
// that are not mappings are skipped with a debug note; a typed read is
// lenient because the raw tree is user-edited.
func (s *Store) Endpoints() ([]auth.EndpointConfig, error) {
	raw, err := s.RawEndpoints()
	if err != nil {
		return nil, err
	}

	endpoints := make([]auth.EndpointConfig, 0, len(raw))
	for i, entry := range raw {
		data, err := yaml.Marshal(entry)
		if err != nil {
			s.logger.Debug("skipping endpoint %d: %v", i, err)
			continue
		}
		var ep auth.EndpointConfig
		if err := yaml.Unmarshal(data, &ep); err != nil {
			s.logger.Debug("skipping endpoint %d: %v", i, err)
			continue
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

// SetEndpoints validates and writes the typed endpoints list back to its
// owning scope.
func (s *Store) SetEndpoints(endpoints []auth.EndpointConfig) error {
	raw := make([]any, 0, len(endpoints))
	for _, ep := range endpoints {
		data, err := yaml.Marshal(ep)
		if err != nil {
			return err
		}
		var entry any
		if err := yaml.Unmarshal(data, &entry); err != nil {
			return err
		}
		raw = append(raw, entry)
	}

	if err := validateEndpoints(raw); err != nil {
		return err
	}
	return s.SetRawEndpoints(raw)
}

// Inspect returns the unmerged raw endpoints value at every scope that
// exists, keyed by scope identifier. Cleanup scans this rather than the
// effective list so no scope's references are overlooked.
func (s *Store) Inspect() (map[string]any, error) {
	scopes := []string{ScopeGlobal, ScopeWorkspace}
	folders, err := s.folderScopes()
	if err != nil {
		return nil, err
	}
	scopes = append(scopes, folders...)

	result := make(map[string]any)
	for _, scope := range scopes {
		endpoints, err := s.readScope(scope)
		if err != nil {
			return nil, err
		}
		if endpoints != nil {
			result[scope] = endpoints
		}
	}
	return result, nil
}

// SetFolderEndpoints writes a folder scope's endpoints list. The host
// application maintains these; the CLI exposes it for tests and tooling.
func (s *Store) SetFolderEndpoints(folder string, raw []any) error {
	return s.writeScope(scopeFolder+folder, raw)
}
