package cli

import (
	"errors"
	"os"

	"github.com/roach88/statkeys/internal/config"
	"github.com/roach88/statkeys/internal/rules"
	"github.com/roach88/statkeys/internal/statkey"
)

// Error codes for CLI output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeConfig       = "E002" // Invalid project configuration
	ErrCodeNotFound     = "E003" // Path not found
	ErrCodeReadFailed   = "E004" // File read error
	ErrCodeWriteFailed  = "E005" // File write error
	ErrCodeDatabase     = "E006" // Catalog database error
	ErrCodeInvalidArg   = "E007" // Invalid argument
	ErrCodeNoHost       = "E008" // No cluster host configured
	ErrCodeAnnotateFail = "E009" // Annotation pass aborted

	// Rule source errors (E1xx)
	ErrCodeRuleSyntax = "E101" // Rule source syntax error
	ErrCodeKeyFormat  = "E102" // Malformed statistics key
	ErrCodeRuleShadow = "E110" // Category rule shadowed by an earlier rule
	ErrCodeRuleUnused = "E111" // Rule matched no key
)

// errorCode maps an error to its stable code.
func errorCode(err error) string {
	var cfgErr *config.Error
	switch {
	case rules.IsSyntaxError(err):
		return ErrCodeRuleSyntax
	case statkey.IsFormatError(err):
		return ErrCodeKeyFormat
	case errors.As(err, &cfgErr):
		return ErrCodeConfig
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// fail reports err through formatter and returns the matching exit error.
func fail(formatter *OutputFormatter, code int, message string, err error) error {
	return report(formatter, code, errorCode(err), message, err)
}

// failIO is fail for file access; errors with no more specific code are
// reported as ioCode (ErrCodeReadFailed or ErrCodeWriteFailed).
func failIO(formatter *OutputFormatter, code int, ioCode, message string, err error) error {
	errCode := errorCode(err)
	if errCode == ErrCodeGeneric {
		errCode = ioCode
	}
	return report(formatter, code, errCode, message, err)
}

func report(formatter *OutputFormatter, code int, errCode, message string, err error) error {
	_ = formatter.Error(errCode, message+": "+err.Error(), nil)
	return WrapExitError(code, errCode+": "+message, err)
}
