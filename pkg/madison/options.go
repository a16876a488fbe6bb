package madison

import (
	"runtime"

	"github.com/thepwagner/madison/pkg/debian"
)

// CompareFunc orders two version strings: negative when a sorts first, zero when equal, positive otherwise.
type CompareFunc func(a, b string) int

type options struct {
	key     KeyFunc
	compare CompareFunc
	workers int
}

type Option func(*options)

func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) { o.key = fn }
}

func WithCompare(fn CompareFunc) Option {
	return func(o *options) { o.compare = fn }
}

// WithWorkers bounds the number of listings scanned concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func newOptions(opts []Option) options {
	o := options{
		key:     Codename,
		compare: debian.CompareVersions,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}
