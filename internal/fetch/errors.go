package fetch

import "fmt"

// RequestError reports a failed remote fetch: the request could not be built,
// the transport failed, or the server answered with a non-200 status.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// CacheWriteError reports that downloaded bytes could not be persisted to the
// local cache. The download itself succeeded.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("write cache entry %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }
