// Package cache provides a small generic LRU cache.
//
// The compositor uses it to memoize derived values that are expensive to
// recompute but cheap to invalidate wholesale, such as composed
// transforms between property tree nodes:
//
//	c := cache.New[pair, Matrix](256)
//	m := c.GetOrCreate(pair{src, dst}, compute)
//	...
//	c.Clear() // tree rebuilt
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
