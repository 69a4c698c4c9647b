// Package press turns vault notes into site page bundles: it reads a note,
// converts it, writes the bundle, copies its images and records the result.
package press

import (
	"log/slog"
	"path"
	"time"

	"github.com/starford/vaultpress/internal/convert"
	"github.com/starford/vaultpress/internal/ledger"
	"github.com/starford/vaultpress/internal/storage"
)

// Event kinds passed to a Notifier.
const (
	EventConverted = "converted"
	EventMigrated  = "migrated"
	EventFailed    = "failed"
	EventDeleted   = "deleted"
)

// Layout describes where posts and assets live inside the site. All paths
// are relative to the site root.
type Layout struct {
	ContentDir string
	Section    string
	AssetsDir  string
	Author     string
	BaseURL    string
	Policy     string
}

// BundleDir returns the page bundle directory of slug.
func (l Layout) BundleDir(slug string) string {
	return path.Join(l.ContentDir, l.Section, slug)
}

// IndexPath returns the path of the bundle's main document.
func (l Layout) IndexPath(slug string) string {
	return path.Join(l.BundleDir(slug), "index.md")
}

// AssetDir returns the directory holding feature images of slug.
func (l Layout) AssetDir(slug string) string {
	return path.Join(l.AssetsDir, slug)
}

// BundlePattern matches every bundle's main document.
func (l Layout) BundlePattern() string {
	return path.Join(l.ContentDir, l.Section, "*", "index.md")
}

// Locator finds a referenced image in the source vault.
type Locator interface {
	Locate(ref string) (string, error)
}

// Notifier receives post events, such as an SSE broker.
type Notifier interface {
	PublishPostEvent(kind, slug string)
}

// FeaturePicker asks which body images are feature images. It returns
// 1-based positions into images.
type FeaturePicker interface {
	PickFeatures(images []string) ([]int, error)
}

// Service coordinates site storage, the vault and the ledger.
type Service struct {
	site   storage.Provider
	ledger ledger.Ledger
	layout Layout

	vault  Locator
	notify Notifier
	picker FeaturePicker
	now    func() time.Time
	log    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithVault sets the locator used to find images.
func WithVault(l Locator) Option {
	return func(s *Service) { s.vault = l }
}

// WithNotifier sets the receiver of post events.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithPicker sets the interactive feature image picker.
func WithPicker(p FeaturePicker) Option {
	return func(s *Service) { s.picker = p }
}

// WithClock overrides the time source used for synthesized dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a press service.
func New(site storage.Provider, ldg ledger.Ledger, layout Layout, opts ...Option) *Service {
	if layout.Section == "" {
		layout.Section = "blog"
	}
	if layout.Policy == "" {
		layout.Policy = convert.PolicyCover
	}
	s := &Service{
		site:   site,
		ledger: ldg,
		layout: layout,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Layout returns the site layout the service writes into.
func (s *Service) Layout() Layout { return s.layout }

func (s *Service) converter(p convert.Policy) convert.Converter {
	return convert.Converter{
		Policy:  p,
		Author:  s.layout.Author,
		BaseURL: s.layout.BaseURL,
		Section: s.layout.Section,
	}
}

func (s *Service) emit(kind, slug string) {
	if s.notify != nil {
		s.notify.PublishPostEvent(kind, slug)
	}
}
