// Package wrap composes the callops components around a single operation.
//
// An operation is a Func: it takes a context and a cache.Args and returns a
// typed result. A Layer decorates a Func, and Chain stacks layers in
// argument order so the first layer is the outermost:
//
//	fib := wrap.Chain("fib", compute,
//	    wrap.Validate[int](wrap.NewValidator().Positional(0, wrap.OfType[int]())),
//	    wrap.Observe[int](mw),
//	    wrap.Memoize(memo),
//	    wrap.RateLimit[int](limiter),
//	    wrap.Retry[int](retry),
//	    wrap.Timeout[int](time.Second),
//	)
//
// Each layer keeps its own guarantees regardless of position. Memoize above
// RateLimit serves hits without consuming admissions; RateLimit above Retry
// admits a whole retry sequence once, while RateLimit below Retry admits
// every attempt.
package wrap
