package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Declaration errors
const (
	// ErrCodeNullArgument indicates a required argument was nil.
	ErrCodeNullArgument ErrorCode = "NULL_ARGUMENT"
	// ErrCodeTypeMismatch indicates an assignability violation or a
	// non-instantiable binding target.
	ErrCodeTypeMismatch ErrorCode = "TYPE_ERROR"
	// ErrCodeInvalidState indicates an operation that is not valid for the
	// current state of its receiver.
	ErrCodeInvalidState ErrorCode = "STATE_ERROR"
)

// Runtime errors
const (
	// ErrCodeConstruction indicates the construction primitive failed.
	ErrCodeConstruction ErrorCode = "CONSTRUCTION_ERROR"
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

var programmerCodes = map[ErrorCode]bool{
	ErrCodeNullArgument: true,
	ErrCodeTypeMismatch: true,
	ErrCodeInvalidState: true,
}

// IsProgrammerCode returns true if the code reports misuse of the API rather
// than a runtime failure.
func IsProgrammerCode(code ErrorCode) bool {
	return programmerCodes[code]
}
