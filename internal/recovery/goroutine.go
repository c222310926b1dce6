package recovery

import (
	"runtime/debug"

	"github.com/vanpelt/trainer/internal/logger"
)

// SafeGo runs a function in a goroutine with automatic panic recovery.
// A panic in one stream pump must not take the whole process down.
func SafeGo(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// SafeGoWithCleanup runs a function in a goroutine with panic recovery and cleanup
func SafeGoWithCleanup(name string, fn func(), cleanup func()) {
	go func() {
		defer func() {
			if cleanup != nil {
				cleanup()
			}
			if r := recover(); r != nil {
				logPanic(name, r)
			}
		}()
		fn()
	}()
}

// recoverPanic must be deferred directly for recover to see the panic
func recoverPanic(name string) {
	if r := recover(); r != nil {
		logPanic(name, r)
	}
}

func logPanic(name string, r interface{}) {
	logger.Logger.Error().
		Str("goroutine", name).
		Interface("panic", r).
		Str("stack", string(debug.Stack())).
		Msg("🚨 panic recovered")
}
