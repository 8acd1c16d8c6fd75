//go:build !debug

package channel

// New returns a buffered channel with the given capacity.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
