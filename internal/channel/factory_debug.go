//go:build debug

package channel

// New returns an unbuffered channel, ignoring size. Debug builds trade
// throughput for deterministic handoff.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
