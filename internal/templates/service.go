package templates

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// ServiceConfig is the fixed input of a Service.
type ServiceConfig struct {
	// Roots are searched in order; later roots win on key collision.
	Roots []Root
	// TutorialPath is an absolute path to the highlighted tutorial template.
	// Empty means no tutorial is configured.
	TutorialPath string
}

// Service answers template queries. Every call rebuilds the index from disk.
type Service struct {
	roots    []Root
	indexer  *Indexer
	tutorial *string
	logger   zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRenderer overrides the placeholder renderer used while indexing.
func WithRenderer(renderer Renderer) ServiceOption {
	return func(s *Service) {
		s.indexer = NewIndexer(renderer, s.logger)
	}
}

// NewService creates a Service for the given configuration.
func NewService(cfg ServiceConfig, logger zerolog.Logger, opts ...ServiceOption) *Service {
	roots := make([]Root, len(cfg.Roots))
	copy(roots, cfg.Roots)

	s := &Service{
		roots:   roots,
		indexer: NewIndexer(nil, logger),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.TutorialPath != "" {
		if rel, ok := RelativeToRoots(cfg.TutorialPath, RootPaths(roots)); ok {
			s.tutorial = &rel
		} else {
			logger.Warn().
				Str("tutorial_path", cfg.TutorialPath).
				Msg("tutorial path is not inside any template root")
		}
	}

	return s
}

// Roots returns the roots searched by the service, in order.
func (s *Service) Roots() []Root {
	roots := make([]Root, len(s.roots))
	copy(roots, s.roots)
	return roots
}

// Index builds a fresh index for username.
func (s *Service) Index(username string) (map[string]*Record, error) {
	return s.indexer.Index(s.roots, username)
}

// List builds a fresh index for username and returns its keys, sorted.
func (s *Service) List(username string) ([]string, map[string]*Record, error) {
	index, err := s.Index(username)
	if err != nil {
		return nil, nil, err
	}

	names := make([]string, 0, len(index))
	for key := range index {
		names = append(names, key)
	}
	sort.Strings(names)
	return names, index, nil
}

// ListNames returns every template key, sorted.
func (s *Service) ListNames(username string) ([]string, error) {
	names, _, err := s.List(username)
	return names, err
}

// FetchTemplate returns the template stored under key. It returns
// ErrTemplateNotFound when key is empty or not indexed.
func (s *Service) FetchTemplate(key, username string) (*Record, error) {
	if key == "" {
		return nil, ErrTemplateNotFound
	}

	index, err := s.Index(username)
	if err != nil {
		return nil, err
	}

	record, ok := index[key]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	return record, nil
}

// TutorialPath returns the configured tutorial path relative to its root, or
// nil if none is configured or no root contains it.
func (s *Service) TutorialPath() *string {
	if s.tutorial == nil {
		return nil
	}
	path := *s.tutorial
	return &path
}

// RelativeToRoots expresses path relative to the first root that contains it.
// Containment is decided per path component, so /a/templates2/x is not inside
// /a/templates. Bundled templates are addressed as BuiltinSource/<key>. It
// reports false when no root contains path.
func RelativeToRoots(path string, roots []string) (string, bool) {
	target := filepath.Clean(path)
	for _, root := range roots {
		rel, ok := within(filepath.Clean(root), target)
		if ok {
			return filepath.ToSlash(rel), true
		}
	}
	return "", false
}

func within(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return rel, true
}
