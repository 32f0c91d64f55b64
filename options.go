package mdstream

import "github.com/charmbracelet/log"

// Option configures a Parser and the reader-driven entry points.
type Option func(*config)

type config struct {
	logger      *log.Logger
	frontMatter bool
	strict      bool
	partials    bool
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithLogger sets the logger used for debug diagnostics. A nil logger
// disables logging.
func WithLogger(logger *log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithFrontMatter strips a leading front matter block (---, +++ or ;;;
// delimited) before parsing. Parse hands YAML front matter to sinks that
// implement FrontMatterSink.
func WithFrontMatter(enabled bool) Option {
	return func(cfg *config) {
		cfg.frontMatter = enabled
	}
}

// WithStrictInput makes Parse fail on invalid UTF-8 and binary input instead
// of dropping the offending bytes.
func WithStrictInput(enabled bool) Option {
	return func(cfg *config) {
		cfg.strict = enabled
	}
}

// WithPartialUpdates makes Parse report the block under construction to
// sinks that implement PartialSink after every chunk.
func WithPartialUpdates(enabled bool) Option {
	return func(cfg *config) {
		cfg.partials = enabled
	}
}
