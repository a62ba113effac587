package transport

import "net/http"

// RefreshPath is the session refresh endpoint. A 401 from this path is final;
// retrying it would loop.
const RefreshPath = "/api/auth/refresh"

// shouldRefreshRetry decides whether a response warrants the one-shot
// refresh-and-retry recovery. It is deliberately a pure function of the
// status and requested path so the protocol can be tested without a network.
// The retry budget of 1 is structural: Do never calls it on a retried
// response.
func shouldRefreshRetry(status int, path string) bool {
	return status == http.StatusUnauthorized && path != RefreshPath
}

// isMutating reports whether the method requires the CSRF header. Safe
// methods never carry it.
func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
