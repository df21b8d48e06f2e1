package errors

import "github.com/cockroachdb/errors"

// Recover converts a panic into an error assigned to *err. It must be called
// directly with defer:
//
//	func (l *Lasso) Run() (err error) {
//		defer errors.Recover(&err, "Lasso.Run")
//		...
//	}
//
// Panics carrying an error keep that error in the chain, so an InvariantError
// raised deep inside a solver still matches errors.Is(err, ErrInvariant).
func Recover(err *error, op string) {
	r := recover()
	if r == nil {
		return
	}
	switch v := r.(type) {
	case error:
		*err = errors.Wrapf(v, "%s: recovered", op)
	default:
		*err = errors.Newf("%s: recovered from panic: %v", op, r)
	}
}
