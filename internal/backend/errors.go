package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

const (
	// CodeNoRows is returned by the data API when a single object was
	// requested and zero (or several) rows matched.
	CodeNoRows = "PGRST116"
	// CodeUniqueViolation is the database error code for a unique constraint.
	CodeUniqueViolation = "23505"
)

// Error is a non-2xx answer from any backend API.
type Error struct {
	Status  int
	Code    string
	Message string
	Hint    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

// parseError understands the error shapes of the data, auth and storage APIs.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if !gjson.ValidBytes(body) {
		e.Message = http.StatusText(status)
		return e
	}
	res := gjson.ParseBytes(body)

	switch {
	case res.Get("error_code").String() != "":
		e.Code = res.Get("error_code").String()
	case res.Get("code").Type == gjson.String:
		e.Code = res.Get("code").String()
	case res.Get("error").Type == gjson.String:
		e.Code = res.Get("error").String()
	}

	for _, key := range []string{"message", "msg", "error_description", "error"} {
		if v := res.Get(key); v.Type == gjson.String && v.String() != "" {
			e.Message = v.String()
			break
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	e.Hint = res.Get("hint").String()
	return e
}

// AsError unwraps err into a backend *Error.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNoRows reports whether a single-object read matched no row.
func IsNoRows(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Code == CodeNoRows
}

// IsRateLimited reports whether the provider throttled the request.
func IsRateLimited(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Status == http.StatusTooManyRequests
}

// IsUniqueViolation reports whether an insert hit a unique constraint.
func IsUniqueViolation(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Code == CodeUniqueViolation
}
