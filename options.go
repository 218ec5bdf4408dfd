package tagframe

// History depth limits.
const (
	// DefaultHistoryDepth is the number of frame slots kept by default.
	DefaultHistoryDepth = 8

	// MinHistoryDepth is the smallest allowed history. Recycling keeps the
	// two most recent application frames, so fewer slots would leave
	// nothing to reclaim.
	MinHistoryDepth = 4
)

// Option configures a Store during creation.
//
// Example:
//
//	counter := tagframe.NewFrameCounter()
//	store, err := tagframe.NewStore(compute, pool,
//	    tagframe.WithHistoryDepth(16),
//	    tagframe.WithFrameSource(counter))
type Option func(*storeOptions)

// storeOptions holds optional configuration for Store creation.
type storeOptions struct {
	historyDepth int
	frames       FrameSource
}

// defaultOptions returns the default store options.
func defaultOptions() storeOptions {
	return storeOptions{
		historyDepth: DefaultHistoryDepth,
	}
}

// WithHistoryDepth sets the number of frame slots. It must be a power of two
// and at least MinHistoryDepth.
func WithHistoryDepth(n int) Option {
	return func(o *storeOptions) {
		o.historyDepth = n
	}
}

// WithFrameSource sets where the store reads the current application frame.
// Without a frame source every SetTag call runs the (cheap) recycling scan.
func WithFrameSource(src FrameSource) Option {
	return func(o *storeOptions) {
		o.frames = src
	}
}

// validHistoryDepth reports whether n is a power of two >= MinHistoryDepth.
func validHistoryDepth(n int) bool {
	return n >= MinHistoryDepth && n&(n-1) == 0
}
