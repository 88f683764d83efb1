package primenet

import (
	"errors"
	"fmt"
)

// ErrNoResponse marks a transport-level failure: the server was never
// reached or answered with an HTTP error status. Distinct from a parsed
// server-side error code; both are retryable but are logged differently.
var ErrNoResponse = errors.New("no response from PrimeNet server")

// Server error codes returned in pnErrorResult.
const (
	ErrorOK                       = 0
	ErrorServerBusy               = 3
	ErrorInvalidVersion           = 4
	ErrorInvalidTransaction       = 5
	ErrorInvalidParameter         = 7
	ErrorAccessDenied             = 9
	ErrorDatabaseCorrupt          = 11
	ErrorDatabaseFullOrBroken     = 13
	ErrorInvalidUser              = 21
	ErrorUnregisteredCPU          = 30
	ErrorObsoleteClient           = 31
	ErrorStaleCPUInfo             = 32
	ErrorCPUIdentityMismatch      = 33
	ErrorCPUConfigurationMismatch = 34
	ErrorNoAssignment             = 40
	ErrorInvalidAssignmentKey     = 43
	ErrorInvalidAssignmentType    = 44
	ErrorInvalidResultType        = 45
	ErrorInvalidWorkType          = 46
	ErrorWorkNoLongerNeeded       = 47
)

var errorMessages = map[int]string{
	ErrorServerBusy:               "Server busy",
	ErrorInvalidVersion:           "Invalid version",
	ErrorInvalidTransaction:       "Invalid transaction",
	ErrorInvalidParameter:         "Invalid parameter",
	ErrorAccessDenied:             "Access denied",
	ErrorDatabaseCorrupt:          "Server database malfunction",
	ErrorDatabaseFullOrBroken:     "Server database full or broken",
	ErrorInvalidUser:              "Invalid user",
	ErrorUnregisteredCPU:          "CPU not registered",
	ErrorObsoleteClient:           "Obsolete client, please upgrade",
	ErrorStaleCPUInfo:             "Stale cpu info",
	ErrorCPUIdentityMismatch:      "CPU identity mismatch",
	ErrorCPUConfigurationMismatch: "CPU configuration mismatch",
	ErrorNoAssignment:             "No assignment",
	ErrorInvalidAssignmentKey:     "Invalid assignment key",
	ErrorInvalidAssignmentType:    "Invalid assignment type",
	ErrorInvalidResultType:        "Invalid result type",
	ErrorInvalidWorkType:          "Invalid work type",
	ErrorWorkNoLongerNeeded:       "Work no longer needed",
}

// ServerError is a non-zero pnErrorResult decoded from a response.
type ServerError struct {
	Code   int
	Detail string
}

func (e *ServerError) Error() string {
	msg, ok := errorMessages[e.Code]
	if !ok {
		msg = "Unknown error code"
	}
	if e.Detail != "" {
		return fmt.Sprintf("PrimeNet error %d: %s: %s", e.Code, msg, e.Detail)
	}
	return fmt.Sprintf("PrimeNet error %d: %s", e.Code, msg)
}

// ServerErrorCode extracts the protocol error code from err, or -1 if err
// is not a ServerError.
func ServerErrorCode(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Code
	}
	return -1
}
