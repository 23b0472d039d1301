package tui

import "github.com/rs/zerolog"

// DefaultMaxDepth bounds how deep Fill offers to expand nested subfields.
// Recursive schemas would otherwise prompt forever.
const DefaultMaxDepth = 4

// Theme captures optional formatting hints applied to prompt and info text.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
}

// Option configures the Filler.
type Option func(*Filler)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth. Zero disables nested expansion.
func WithMaxDepth(depth int) Option {
	return func(f *Filler) {
		if depth >= 0 {
			f.maxDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Filler) {
		f.logger = logger
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(f *Filler) {
		f.theme = theme
	}
}
