package console

import "time"

// Timer is a pending delayed callback
type Timer interface {
	// Stop cancels the callback; it reports false if it already fired or was stopped
	Stop() bool
}

// Scheduler runs callbacks on the console's single event loop. Every method of
// Console, Registry and the sessions must only be called from that loop; Post
// is the one entry point that is safe from other goroutines.
type Scheduler interface {
	Post(fn func())
	After(d time.Duration, fn func()) Timer
}
