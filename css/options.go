package css

import "go.uber.org/zap"

// Option configures a Parser.
type Option func(*Parser)

// WithBaseURL sets the reference that url() terms are resolved against.
func WithBaseURL(base string) Option {
	return func(p *Parser) {
		p.baseURL = base
	}
}

// WithLogger sets the logger receiving recovery diagnostics. A nil logger
// disables logging.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log == nil {
			log = zap.NewNop()
		}
		p.log = log.Named("css-parser")
	}
}
