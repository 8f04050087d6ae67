package dispatch

// Logger receives the dispatcher's decision and fallback diagnostics.
// The zero Dispatcher uses a no-op Logger: logging stays optional and
// injectable rather than a package-global.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithLogger installs l as the Dispatcher's Logger.
func WithLogger(l Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}
