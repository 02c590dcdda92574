package output

// Exit codes for the hgcred CLI
const (
	ExitOK          = 0  // Success
	ExitGeneral     = 1  // General error
	ExitUsage       = 2  // Invalid usage / bad arguments
	ExitAuth        = 3  // Authentication / prompt failure
	ExitNotFound    = 4  // No stored credential for the key
	ExitStore       = 5  // Secret-store backend failure
	ExitHelper      = 6  // Credential-helper subprocess failure
	ExitConfigError = 10 // Configuration error
)

// CLIError is a structured error carrying an exit code and an optional
// user-facing hint.
type CLIError struct {
	ExitCode int
	Message  string
	Hint     string
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	return e.Message
}

// NewCLIError creates a new CLIError.
func NewCLIError(code int, msg string) *CLIError {
	return &CLIError{
		ExitCode: code,
		Message:  msg,
	}
}

// WithHint adds a user-facing hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}
