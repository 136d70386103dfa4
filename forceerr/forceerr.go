// Package forceerr defines the error kinds shared by the constraint, page,
// vm, resource and solver packages, and the propagation policy that keeps
// them consistent: recoverable kinds let a caller relax a request and
// retry, fatal kinds mean the generator must abort.
package forceerr

import "fmt"

// Kind names one of the failure domains of the address-and-constraint
// solver. The zero value is never produced by this package.
type Kind uint8

const (
	_ Kind = iota
	// EmptyConstraint is returned by an operation that requires a value
	// (ChooseValue, OnlyValue, LowerBound, UpperBound) on an empty set.
	EmptyConstraint
	// ConstraintMalformed is returned when caller-supplied interval text
	// or bounds violate the ConstraintSet invariants.
	ConstraintMalformed
	// NoAddressSolution is returned when a solver exhausts every
	// candidate under the current constraints.
	NoAddressSolution
	// PageAllocationFailed is returned when physical or virtual
	// resources are exhausted or mutually incompatible.
	PageAllocationFailed
	// VmContextInvalid is returned when paging control registers cannot
	// be interpreted into a VM context.
	VmContextInvalid
	// IssMismatch is returned when the ISS disagrees with a solver
	// prediction or reports an error code.
	IssMismatch
	// UnknownName is returned when a register, operand or variable name
	// is not present in the catalog.
	UnknownName
	// InvariantViolation marks a broken internal invariant (sort order,
	// size-cache mismatch, out-of-range register name, ...). Always
	// fatal; see Panic.
	InvariantViolation
)

func (k Kind) String() string {
	switch k {
	case EmptyConstraint:
		return "EmptyConstraint"
	case ConstraintMalformed:
		return "ConstraintMalformed"
	case NoAddressSolution:
		return "NoAddressSolution"
	case PageAllocationFailed:
		return "PageAllocationFailed"
	case VmContextInvalid:
		return "VmContextInvalid"
	case IssMismatch:
		return "IssMismatch"
	case UnknownName:
		return "UnknownName"
	case InvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type produced throughout this module. Op
// names the failing operation (e.g. "ConstraintSet.ChooseValue"), Msg is a
// human-readable detail, and Err optionally wraps an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, forceerr.New(forceerr.NoAddressSolution, "", "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an *Error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an *Error of the given kind around an underlying cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err if it is (or wraps) a *Error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if err == nil {
		return 0, false
	}
	if ferr, ok := err.(*Error); ok {
		return ferr.Kind, true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return KindOf(u.Unwrap())
	}
	_ = fe
	return 0, false
}

var recoverableKinds = map[Kind]bool{
	NoAddressSolution:    true,
	PageAllocationFailed: true,
}

var fatalKinds = map[Kind]bool{
	VmContextInvalid:   true,
	IssMismatch:        true,
	InvariantViolation: true,
}

// Recoverable reports whether err names a kind the caller may react to by
// relaxing its request and retrying (spec §7).
func Recoverable(err error) bool {
	k, ok := KindOf(err)
	return ok && recoverableKinds[k]
}

// Fatal reports whether err names a kind that must terminate the
// generator run with a diagnostic (spec §7).
func Fatal(err error) bool {
	k, ok := KindOf(err)
	return ok && fatalKinds[k]
}

// PanicValue is what Panic passes to panic(), and what a top-level
// recover() in the generator driver type-asserts back out so it can be
// converted into a fatal diagnostic instead of crashing the process bare.
type PanicValue struct {
	Kind Kind
	Op   string
	Msg  string
}

func (p PanicValue) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Op, p.Kind, p.Msg)
}

// Panic is reserved for broken invariants: sorted order, size-cache
// mismatch, out-of-range register name, ISS disagreement treated as
// unrecoverable. It always panics; it never returns.
func Panic(kind Kind, op, msg string) {
	panic(PanicValue{Kind: kind, Op: op, Msg: msg})
}

// Recover converts a PanicValue recovered from a deferred recover() call
// into an *Error, or returns nil if r was not produced by Panic.
func Recover(r any) *Error {
	if r == nil {
		return nil
	}
	if pv, ok := r.(PanicValue); ok {
		return &Error{Kind: pv.Kind, Op: pv.Op, Msg: pv.Msg}
	}
	return nil
}
