package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	watch  bool
	serve  bool
	mcp    bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithWatch keeps the process running and converts files as they change.
func WithWatch(enabled bool) Option {
	return func(a *application) {
		a.watch = enabled
	}
}

// WithServe exposes the REST API and SSE endpoint over HTTP.
func WithServe(enabled bool) Option {
	return func(a *application) {
		a.serve = enabled
	}
}

// WithMCP runs the MCP stdio server instead of the batch pipeline.
func WithMCP(enabled bool) Option {
	return func(a *application) {
		a.mcp = enabled
	}
}
