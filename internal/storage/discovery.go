package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/archlens/targetview/internal/config"
)

// DefaultDBPath is used when no database path is configured
const DefaultDBPath = config.ProjectDir + "/targetview.db"

// DiscoverDatabase returns the database of the project in the working
// directory. TV_DB_PATH, when set, wins without any lookup and may be a
// special value such as ":memory:".
func DiscoverDatabase() (string, error) {
	if dbPath := os.Getenv("TV_DB_PATH"); dbPath != "" {
		return dbPath, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return discoverDatabaseInDir(dir)
}

// discoverDatabaseInDir looks only at dir/.targetview, never at parent
// directories, so a nested project cannot pick up an enclosing estate. More
// than one database is ambiguous and reported with the candidates.
func discoverDatabaseInDir(dir string) (string, error) {
	projectDir := filepath.Join(dir, config.ProjectDir)

	entries, err := os.ReadDir(projectDir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read %s: %w", projectDir, err)
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(projectDir, entry.Name()))
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		candidates = append(candidates, abs)
	}
	sort.Strings(candidates)

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf(
			"no %s/*.db found in %s\n"+
				"  Run 'targetview init' to create a project in this directory\n"+
				"  Or use --db (or TV_DB_PATH) to choose a database explicitly",
			config.ProjectDir, dir)
	case 1:
		return candidates[0], nil
	}
	return "", fmt.Errorf(
		"%d databases found in %s:\n  %s\n"+
			"  Use --db (or TV_DB_PATH) to choose one",
		len(candidates), projectDir, strings.Join(candidates, "\n  "))
}

// GetProjectRoot returns the directory that contains the .targetview
// directory holding dbPath; view.yaml is read from there
func GetProjectRoot(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	dbDir := filepath.Dir(absPath)
	if filepath.Base(dbDir) != config.ProjectDir {
		return "", fmt.Errorf("database must be in a %s/ directory, got: %s", config.ProjectDir, dbPath)
	}
	return filepath.Dir(dbDir), nil
}

// ValidateAlignment reports whether workingDir is inside the project that
// owns dbPath. Subdirectories of the project count as aligned.
func ValidateAlignment(dbPath, workingDir string) error {
	projectRoot, err := GetProjectRoot(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}

	absWorkingDir, err := filepath.Abs(workingDir)
	if err != nil {
		return fmt.Errorf("invalid working directory: %w", err)
	}

	rel, err := filepath.Rel(projectRoot, absWorkingDir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf(
			"database %s belongs to project %s, not to %s\n"+
				"  cd %s, or pass the matching --db for this directory",
			dbPath, projectRoot, absWorkingDir, projectRoot)
	}
	return nil
}

// InitProject creates projectDir/.targetview, seeds an example view.yaml when
// none exists, and returns the path the database should be created at. The
// database itself is created on first connection. The project name defaults
// to the directory name.
func InitProject(projectDir, projectName string) (string, error) {
	if info, err := os.Stat(projectDir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("project directory does not exist: %s", projectDir)
	}

	dir := filepath.Join(projectDir, config.ProjectDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", config.ProjectDir, err)
	}

	name := projectName
	if name == "" {
		name = filepath.Base(projectDir)
	}
	name = strings.TrimSuffix(name, ".db") + ".db"

	dbPath := filepath.Join(dir, name)
	if _, err := os.Stat(dbPath); err == nil {
		return "", fmt.Errorf("database already exists: %s", dbPath)
	}

	viewFile := config.ViewFilePath(projectDir)
	if _, err := os.Stat(viewFile); os.IsNotExist(err) {
		if err := os.WriteFile(viewFile, []byte(config.ExampleViewFile()), 0644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", config.ViewFileName, err)
		}
	}

	return dbPath, nil
}
