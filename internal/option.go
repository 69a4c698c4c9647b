package internal

import (
	"io"

	"github.com/starford/vaultpress/internal/press"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logOutput io.Writer
	picker    press.FeaturePicker
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput sets where logs are written. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithPicker sets the interactive feature image picker.
func WithPicker(p press.FeaturePicker) Option {
	return func(a *application) {
		a.picker = p
	}
}
