package console

import "github.com/okian/racepick/pkg/logger"

// Option applies a configuration option to a Session.
type Option func(*Session)

// WithColor enables ANSI colors in rankings.
func WithColor(on bool) Option {
	return func(s *Session) { s.renderer.Color = on }
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}
