package templates

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/opencode-ai/nbtemplates/internal/placeholder"
	"github.com/rs/zerolog"
)

// Renderer substitutes placeholders in template content.
type Renderer interface {
	Render(content, username string) string
}

// Indexer builds the template index from an ordered list of roots.
type Indexer struct {
	renderer Renderer
	logger   zerolog.Logger
}

// NewIndexer creates an Indexer. A nil renderer uses the default placeholder
// engine.
func NewIndexer(renderer Renderer, logger zerolog.Logger) *Indexer {
	if renderer == nil {
		renderer = placeholder.New()
	}
	return &Indexer{renderer: renderer, logger: logger}
}

// Index walks every root in order and returns the rendered templates keyed by
// their path relative to the root. A key found under a later root replaces the
// one from an earlier root. Any filesystem or decode error fails the whole
// call.
func (ix *Indexer) Index(roots []Root, username string) (map[string]*Record, error) {
	if username == "" {
		username = placeholder.DefaultUsername
	}
	index := make(map[string]*Record)

	for _, root := range roots {
		records, err := ix.indexRoot(root, username)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			index[record.Key()] = record
		}
		ix.logger.Debug().
			Str("root", root.Path).
			Int("templates", len(records)).
			Msg("indexed template root")
	}

	return index, nil
}

func (ix *Indexer) indexRoot(root Root, username string) ([]*Record, error) {
	if root.fsys == nil {
		return nil, fmt.Errorf("template root %q has no filesystem", root.Path)
	}

	var records []*Record
	err := fs.WalkDir(root.fsys, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk template root %s: %w", root.Path, err)
		}
		if entry.IsDir() {
			if name != "." && skipDir(entry.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !isTemplateFile(entry.Name()) {
			return nil
		}

		record, err := ix.load(root, name, username)
		if err != nil {
			return err
		}
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (ix *Indexer) load(root Root, name, username string) (*Record, error) {
	source := filepath.Join(root.Path, filepath.FromSlash(name))

	data, err := fs.ReadFile(root.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", source, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("read template %s: %w", source, ErrInvalidEncoding)
	}

	dirname := path.Dir(name)
	if dirname == "." {
		dirname = ""
	}

	return &Record{
		Path:     source,
		Dirname:  dirname,
		Filename: path.Base(name),
		Content:  ix.renderer.Render(string(data), username),
		Username: username,
	}, nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == CheckpointDir
}

func isTemplateFile(name string) bool {
	matched, err := path.Match("*"+Extension, name)
	return err == nil && matched
}
