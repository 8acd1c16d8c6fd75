// Package channel provides generic channel wrappers for handing control
// commands from the console reader to the simulation loop.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. TrySend never blocks and
// reports whether the value was accepted, so a stalled consumer drops
// commands instead of wedging the producer.
type Sender[T any] interface {
	Send(T)
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
