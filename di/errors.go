package di

import (
	"fmt"
	"strings"

	"github.com/xraph/dicontainer/errs"
)

// Error codes for the resolution pipeline. These are separate from the
// generic errs.Code* constants because they carry container-specific
// context (identifier, stage, path) that callers match on.
const (
	CodeNotFound           = "DI_NOT_FOUND"
	CodeCycle              = "DI_CYCLE"
	CodeUnresolvableParam  = "DI_UNRESOLVABLE_PARAM"
	CodeDefinitionConflict = "DI_DEFINITION_CONFLICT"
	CodeVerificationFailed = "DI_VERIFICATION_FAILED"
	CodeScopeViolation     = "DI_SCOPE_VIOLATION"
	CodeContainerState     = "DI_CONTAINER_STATE"
	CodeTimeout            = "DI_TIMEOUT"
	CodeDepthExceeded      = "DI_DEPTH_EXCEEDED"
	CodeFactoryFailed      = "DI_FACTORY_FAILED"
	CodeInjectionFailed    = "DI_INJECTION_FAILED"
)

// ResolutionError is the structured error returned by every Kernel
// operation that can fail (get, make, call, resolve). It carries the
// chain of identifiers visited, the stage that produced the failure,
// and an optional resolution trace for diagnostics.
type ResolutionError struct {
	*errs.Error

	Identifier string
	Stage      Stage
	Path       []string
	Trace      ResolutionTrace
}

// newResolutionError builds a ResolutionError, recording identifier,
// stage and path as both struct fields and error context so it survives
// generic errs.Error inspection (errs.As, JSON logging, etc).
func newResolutionError(code, message, identifier string, stage Stage, path []string, cause error) *ResolutionError {
	base := errs.NewError(code, message, cause).
		WithContext("identifier", identifier).
		WithContext("stage", stage.String()).
		WithContext("path", path).(*errs.Error)

	return &ResolutionError{
		Error:      base,
		Identifier: identifier,
		Stage:      stage,
		Path:       path,
	}
}

// WithTrace attaches a resolution trace to the error, matching §6's
// error payload shape ("trace" field).
func (e *ResolutionError) WithTrace(trace ResolutionTrace) *ResolutionError {
	e.Trace = trace
	e.Error.WithContext("trace", trace.Stages())

	return e
}

// Error renders the chain of identifiers alongside the underlying message,
// e.g. `resolution cycle detected at "A" [A -> B -> A]`.
func (e *ResolutionError) Error() string {
	if len(e.Path) == 0 {
		return e.Error.Error()
	}

	return fmt.Sprintf("%s [%s]", e.Error.Error(), strings.Join(e.Path, " -> "))
}

// Unwrap exposes the underlying errs.Error so errors.Is/errors.As keep
// working through this wrapper.
func (e *ResolutionError) Unwrap() error {
	return e.Error
}

// errNotFound builds a NotFound error (§7): identifier is not registered
// and cannot be autowired.
func errNotFound(identifier string, path []string) *ResolutionError {
	return newResolutionError(CodeNotFound,
		fmt.Sprintf("service %q is not registered and cannot be autowired", identifier),
		identifier, StageDefinitionLookup, path, nil)
}

// errCycle builds a Cycle error whose path lists every node of the cycle
// exactly once plus the repeating head (property 5 in §8).
func errCycle(identifier string, path []string) *ResolutionError {
	full := append(append([]string{}, path...), identifier)

	return newResolutionError(CodeCycle,
		fmt.Sprintf("resolution cycle detected at %q", identifier),
		identifier, StageAutowire, full, nil)
}

// errMissingParam builds an UnresolvableParam error (§4.F step 5).
func errMissingParam(identifier, param string, path []string) *ResolutionError {
	return newResolutionError(CodeUnresolvableParam,
		fmt.Sprintf("parameter %q of %q cannot be resolved by override, type, default, or null", param, identifier),
		identifier, StageInstantiate, path, nil)
}

// errDefinitionConflict builds a DefinitionConflict error (alias cycles,
// contradictory definitions).
func errDefinitionConflict(identifier, message string) *ResolutionError {
	return newResolutionError(CodeDefinitionConflict, message, identifier, StageDefinitionLookup, nil, nil)
}

// errVerificationFailed builds a VerificationFailed error (§4.B verifier).
func errVerificationFailed(identifier, message string, cause error) *ResolutionError {
	return newResolutionError(CodeVerificationFailed, message, identifier, StageStart, nil, cause)
}

// errScopeViolation builds a ScopeViolation error: scoped service
// requested outside any scope, or an attempt to pop the root scope.
func errScopeViolation(identifier, message string) *ResolutionError {
	return newResolutionError(CodeScopeViolation, message, identifier, StageDefinitionLookup, nil, nil)
}

// errContainerState builds a ContainerState error: double wiring, writes
// after freeze.
func errContainerState(message string) *ResolutionError {
	return newResolutionError(CodeContainerState, message, "", StageStart, nil, nil)
}

// errTimeout builds a Timeout error: the per-resolution deadline expired
// between stages.
func errTimeout(identifier string, stage Stage, path []string) *ResolutionError {
	return newResolutionError(CodeTimeout, fmt.Sprintf("resolution of %q timed out", identifier), identifier, stage, path, nil)
}

// errDepthExceeded builds a DepthExceeded error: maxDepth guard tripped.
func errDepthExceeded(identifier string, path []string, maxDepth int) *ResolutionError {
	return newResolutionError(CodeDepthExceeded,
		fmt.Sprintf("resolution depth exceeded maxDepth=%d while resolving %q", maxDepth, identifier),
		identifier, StageInstantiate, path, nil)
}

// errFactoryFailed wraps a user factory panic/error (§7, carries cause).
func errFactoryFailed(identifier string, path []string, cause error) *ResolutionError {
	return newResolutionError(CodeFactoryFailed,
		fmt.Sprintf("factory for %q failed", identifier),
		identifier, StageInstantiate, path, cause)
}

// errInjectionFailed wraps a property/method injection failure.
func errInjectionFailed(identifier, target string, cause error) *ResolutionError {
	return newResolutionError(CodeInjectionFailed,
		fmt.Sprintf("injection into %q of %q failed", target, identifier),
		identifier, StageInject, nil, cause)
}

// IsNotFound reports whether err is (or wraps) a NotFound resolution error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsCycle reports whether err is (or wraps) a Cycle resolution error.
func IsCycle(err error) bool { return hasCode(err, CodeCycle) }

// IsUnresolvableParam reports whether err is (or wraps) an
// UnresolvableParam resolution error.
func IsUnresolvableParam(err error) bool { return hasCode(err, CodeUnresolvableParam) }

func hasCode(err error, code string) bool {
	var re *ResolutionError
	if errs.As(err, &re) {
		return re.GetCode() == code
	}

	return false
}
