package errors

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// ConvergenceWarning is emitted when an iterative algorithm stops because it
// hit its iteration budget. It is an error value but is passed to Warn, not
// returned.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

// NewConvergenceWarning creates a ConvergenceWarning.
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

func (w *ConvergenceWarning) Error() string {
	return fmt.Sprintf("ConvergenceWarning: %s stopped after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
}

// Is reports whether target is ErrNotConverged.
func (w *ConvergenceWarning) Is(target error) bool { return target == ErrNotConverged }

// WarningHandler receives every value passed to Warn.
type WarningHandler func(w error)

var (
	warnMu      sync.RWMutex
	warnHandler WarningHandler = defaultWarningHandler
	warnLogger                 = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}).
			With().Timestamp().Logger()
)

func defaultWarningHandler(w error) {
	ev := warnLogger.Warn().Err(w)
	var cw *ConvergenceWarning
	if As(w, &cw) {
		ev = ev.Str("algorithm", cw.Algorithm).Int("iterations", cw.Iterations)
	}
	ev.Msg("warning")
}

// SetWarningHandler replaces the warning sink and returns the previous one.
// A nil handler silences warnings.
func SetWarningHandler(h WarningHandler) WarningHandler {
	warnMu.Lock()
	defer warnMu.Unlock()
	prev := warnHandler
	if h == nil {
		h = func(error) {}
	}
	warnHandler = h
	return prev
}

// Warn reports a non-fatal condition. By default the warning is written to
// standard output through zerolog.
func Warn(w error) {
	if w == nil {
		return
	}
	warnMu.RLock()
	h := warnHandler
	warnMu.RUnlock()
	h(w)
}
