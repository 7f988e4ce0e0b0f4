package wifiform

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/muurk/dmxbox/internal/deviceconfig"
)

// Field paths used as FieldErrors keys.
const (
	PathHostName                = "hostName"
	PathAccessPointName         = "accessPoint.name"
	PathAccessPointSecurityType = "accessPoint.security.type"
	PathAccessPointPassword     = "accessPoint.security.password"
	PathAccessPointChannel      = "accessPoint.channel"
	PathExistingNetworkName     = "existingNetwork.name"
	PathExistingNetworkType     = "existingNetwork.security.type"
	PathExistingNetworkPassword = "existingNetwork.security.password"
)

// Length limits, counted in characters.
const (
	MinNetworkNameLength = 1
	MaxNetworkNameLength = 32
	MinPasswordLength    = 8
	MaxPasswordLength    = 63
)

// ErrorCode classifies a field error.
type ErrorCode string

const (
	CodeRequired     ErrorCode = "required"
	CodeTooShort     ErrorCode = "too_short"
	CodeTooLong      ErrorCode = "too_long"
	CodeInvalidValue ErrorCode = "invalid_value"
)

// FieldError is the reason one field was rejected.
type FieldError struct {
	Path    string
	Code    ErrorCode
	Message string
	// Limit is the bound that was violated for too_short/too_long.
	Limit int
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// FieldErrors maps a field path to its error. An empty map means the fields
// are valid.
type FieldErrors map[string]FieldError

// Valid reports whether no field failed.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Paths returns the failing field paths in sorted order.
func (fe FieldErrors) Paths() []string {
	paths := make([]string, 0, len(fe))
	for path := range fe {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Err returns fe as an error, or nil when valid.
func (fe FieldErrors) Err() error {
	if fe.Valid() {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, path := range fe.Paths() {
		msgs = append(msgs, fe[path].Error())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (fe FieldErrors) add(path string, code ErrorCode, limit int, format string, args ...interface{}) {
	fe[path] = FieldError{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Limit:   limit,
	}
}

// Validate checks every field and reports all failures at once. The existing
// network is only checked when it is Enabled.
func Validate(f FormFields) FieldErrors {
	errs := FieldErrors{}

	checkHostName(errs, f.HostName)
	checkNetworkName(errs, PathAccessPointName, f.AccessPoint.Name)
	checkSecurity(errs, PathAccessPointSecurityType, PathAccessPointPassword, f.AccessPoint.Security)
	if !f.AccessPoint.Channel.Valid() {
		errs.add(PathAccessPointChannel, CodeInvalidValue, 0,
			"channel must be auto or %d-%d", deviceconfig.MinChannel, deviceconfig.MaxChannel)
	}

	if enabled, ok := f.existing().(Enabled); ok {
		checkNetworkName(errs, PathExistingNetworkName, enabled.Name)
		checkSecurity(errs, PathExistingNetworkType, PathExistingNetworkPassword, enabled.Security)
	}

	return errs
}

// checkHostName counts bytes: the firmware stores the hostname in a
// fixed 15-byte buffer, so one multi-byte character uses several.
func checkHostName(errs FieldErrors, name string) {
	n := len(name)
	switch {
	case n == 0:
		errs.add(PathHostName, CodeRequired, 0, "hostname is required")
	case n > deviceconfig.MaxHostNameLength:
		errs.add(PathHostName, CodeTooLong, deviceconfig.MaxHostNameLength,
			"hostname must be at most %d bytes", deviceconfig.MaxHostNameLength)
	}
}

func checkNetworkName(errs FieldErrors, path, name string) {
	n := utf8.RuneCountInString(name)
	switch {
	case n < MinNetworkNameLength:
		errs.add(path, CodeRequired, MinNetworkNameLength, "network name is required")
	case n > MaxNetworkNameLength:
		errs.add(path, CodeTooLong, MaxNetworkNameLength,
			"network name must be at most %d characters", MaxNetworkNameLength)
	}
}

func checkSecurity(errs FieldErrors, typePath, passwordPath string, sec SecuritySelection) {
	if !sec.Type.Valid() {
		errs.add(typePath, CodeInvalidValue, 0, "unknown security type %q", string(sec.Type))
		return
	}
	if !sec.Type.RequiresPassword() {
		return
	}

	n := utf8.RuneCountInString(sec.Password)
	switch {
	case n == 0:
		errs.add(passwordPath, CodeRequired, MinPasswordLength, "password is required")
	case n < MinPasswordLength:
		errs.add(passwordPath, CodeTooShort, MinPasswordLength,
			"password must be at least %d characters", MinPasswordLength)
	case n > MaxPasswordLength:
		errs.add(passwordPath, CodeTooLong, MaxPasswordLength,
			"password must be at most %d characters", MaxPasswordLength)
	}
}
