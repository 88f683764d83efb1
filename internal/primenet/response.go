package primenet

import (
	"strconv"
	"strings"
)

// endSentinel terminates the meaningful part of every v5 response body.
const endSentinel = "==END=="

// Response is the decoded key=value body of a v5 response.
type Response map[string]string

// DecodeResponse parses the newline-separated key=value response format.
// Parsing stops at the ==END== sentinel; anything after it is ignored.
func DecodeResponse(body string) Response {
	r := make(Response)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == endSentinel {
			break
		}
		key, value, _ := strings.Cut(line, "=")
		if key == "" {
			continue
		}
		r[key] = value
	}
	return r
}

// ErrorCode returns the numeric pnErrorResult. A missing or malformed field
// is reported as -1 so it is never mistaken for success.
func (r Response) ErrorCode() int {
	rc, err := strconv.Atoi(r["pnErrorResult"])
	if err != nil {
		return -1
	}
	return rc
}

// ErrorDetail returns the pnErrorDetail field.
func (r Response) ErrorDetail() string { return r["pnErrorDetail"] }

// Err maps the response onto the error taxonomy: nil for code zero (a
// non-"SUCCESS" detail alongside code zero is an advisory, surfaced by the
// caller for logging, not a failure), otherwise a *ServerError.
func (r Response) Err() error {
	rc := r.ErrorCode()
	if rc == ErrorOK {
		return nil
	}
	return &ServerError{Code: rc, Detail: r.ErrorDetail()}
}
