package rfc9111

import (
	"fmt"
	"net/http"
	"time"
)

// MustNotStore returns a boolean indicating if a particular origin response
// MUST NOT be stored in the cache.
//
// The response may be a "real" response from e.g. HttpClient.Do(), OR a Response
// struct with the following fields set:
//
// - Header
// - StatusCode
// - Request with at least .Method set
//
// All of the above are strictly needed as defined by the standard.
// An error will be returned if any of these fields are not present.
// Note that an error is also thrown if the headers are empty, since servers send headers.
func MustNotStore(originResponse *http.Response) (bool, error) {
	if originResponse.Header == nil || len(originResponse.Header) == 0 {
		return true, fmt.Errorf("Response headers empty")
	}
	if originResponse.StatusCode == 0 {
		return true, fmt.Errorf("Response status code empty")
	}
	if originResponse.Request == nil {
		return true, fmt.Errorf("Response request object empty")
	}
	if originResponse.Request.Method == "" {
		return true, fmt.Errorf("Response request method empty")
	}

	return mustNotStore(originResponse.Request, originResponse)
}

// AddAgeHeader adds the Age header to the response, as mandated by the standard.
// It directly mutates the response headers.
// It is based on the `current_age` calculation.
func AddAgeHeader(storedResponse *http.Response, responseTime, requestTime time.Time) {
	age := current_age(storedResponse, responseTime, requestTime)
	storedResponse.Header.Set("Age", toDeltaSeconds(age))
}
