package templates

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
)

// CoreDirName is the subdirectory of each notebook data path searched when
// core paths are enabled.
const CoreDirName = "notebook_templates"

// SearchOptions selects the template roots.
type SearchOptions struct {
	// TemplateDirs are searched first, in order.
	TemplateDirs []string
	// IncludeDefault appends the bundled templates.
	IncludeDefault bool
	// IncludeCorePaths appends CoreDirName under every notebook data path.
	IncludeCorePaths bool
}

// SearchRoots returns template roots in precedence order; later roots shadow
// earlier ones on key collision. Configured directories are always kept so a
// missing one fails indexing. Core paths that do not exist are dropped.
func SearchRoots(opts SearchOptions, logger zerolog.Logger) []Root {
	roots := DirRoots(nonEmpty(opts.TemplateDirs))

	if opts.IncludeDefault {
		roots = append(roots, BuiltinRoot())
	}

	if opts.IncludeCorePaths {
		for _, dir := range CorePaths() {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				logger.Debug().Str("path", dir).Msg("skipping missing core template path")
				continue
			}
			roots = append(roots, DirRoot(dir))
		}
	}

	return roots
}

// RootPaths returns the display path of each root.
func RootPaths(roots []Root) []string {
	paths := make([]string, 0, len(roots))
	for _, root := range roots {
		paths = append(paths, root.Path)
	}
	return paths
}

// CorePaths returns CoreDirName joined onto every notebook data directory, in
// the order a notebook server searches them.
func CorePaths() []string {
	dataDirs := DataPaths()
	paths := make([]string, 0, len(dataDirs))
	for _, dir := range dataDirs {
		paths = append(paths, filepath.Join(dir, CoreDirName))
	}
	return paths
}

// DataPaths returns notebook data directories: JUPYTER_PATH entries, the user
// data directory, then system directories.
func DataPaths() []string {
	paths := make([]string, 0, 4)
	seen := make(map[string]bool)
	add := func(path string) {
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		paths = append(paths, path)
	}

	for _, path := range filepath.SplitList(os.Getenv("JUPYTER_PATH")) {
		add(strings.TrimRight(path, string(filepath.Separator)))
	}
	add(userDataDir())
	for _, path := range systemDataDirs() {
		add(path)
	}

	return paths
}

func userDataDir() string {
	if dir := os.Getenv("JUPYTER_DATA_DIR"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Jupyter")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "jupyter")
		}
		return filepath.Join(home, "AppData", "Roaming", "jupyter")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "jupyter")
		}
		return filepath.Join(home, ".local", "share", "jupyter")
	}
}

func systemDataDirs() []string {
	if runtime.GOOS == "windows" {
		if programData := os.Getenv("PROGRAMDATA"); programData != "" {
			return []string{filepath.Join(programData, "jupyter")}
		}
		return nil
	}
	return []string{
		filepath.Join(string(filepath.Separator), "usr", "local", "share", "jupyter"),
		filepath.Join(string(filepath.Separator), "usr", "share", "jupyter"),
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			out = append(out, value)
		}
	}
	return out
}
