package runtime

import (
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/manav03panchal/timeblock/internal/errors"
	"github.com/manav03panchal/timeblock/internal/output"
)

// Exit codes by error category.
const (
	ExitOK         = 0
	ExitError      = 1
	ExitUsage      = 2
	ExitPermission = 3
	ExitStorage    = 4
)

// ErrDiskFull marks a write that failed for lack of space.
var ErrDiskFull = errors.New("disk full: unable to write to storage")

// FormatError formats an error with its suggestion on a second line.
func FormatError(err error) string {
	msg := err.Error()
	if suggestion := Suggestion(err); suggestion != "" {
		msg += "\n" + suggestion
	}
	return msg
}

// Suggestion returns advice for err, including disk-full conditions the
// error taxonomy does not know about.
func Suggestion(err error) string {
	if IsDiskFullError(err) {
		return "Free up disk space and try again. Blocks created in this run are kept in memory until then."
	}
	return errors.GetSuggestion(err)
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch errors.Classify(err) {
	case errors.CategoryUnknown:
		if err == nil {
			return ExitOK
		}
		return ExitError
	case errors.CategoryValidation, errors.CategoryNotFound:
		return ExitUsage
	case errors.CategoryPermission:
		return ExitPermission
	case errors.CategoryStorage:
		return ExitStorage
	default:
		return ExitError
	}
}

// PrintError writes err to stderr, or as JSON to f when it is in JSON mode.
func PrintError(f *output.Formatter, stderr io.Writer, err error) {
	if f != nil && f.IsJSON() {
		output.NewJSONFormatter(f).PrintError(err.Error(), errors.Classify(err).String(), Suggestion(err))
		return
	}
	fmt.Fprintf(stderr, "Error: %s\n", FormatError(err))
}

// IsDiskFullError reports whether err indicates a full disk: ENOSPC or a
// matching message.
func IsDiskFullError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDiskFull) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.ENOSPC {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"no space left on device",
		"disk full",
		"enospc",
		"not enough space",
		"insufficient disk space",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
