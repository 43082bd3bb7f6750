package dedupe

// Option applies a configuration option to the Grouper.
type Option func(*Grouper)

// WithKeyFunc overrides the canonical key function.
func WithKeyFunc(fn func(string) string) Option {
	return func(g *Grouper) {
		if fn != nil {
			g.key = fn
		}
	}
}
