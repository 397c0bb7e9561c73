package models

import "fmt"

// NetworkError covers transport failures, bad HTTP statuses and
// browser-session breakage.
type NetworkError struct {
	Op    string
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s: network error for %s: %v", e.Op, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// ParsingError means the page loaded but an expected structure was absent.
type ParsingError struct {
	Op    string
	URL   string
	Cause error
}

func (e *ParsingError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s: parse error for %s: %v", e.Op, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s: parse error: %v", e.Op, e.Cause)
}

func (e *ParsingError) Unwrap() error { return e.Cause }

// DownloadError is a listing or aggregation failure that is not
// attributable to a single network call.
type DownloadError struct {
	Op    string
	Cause error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: download error: %v", e.Op, e.Cause)
}

func (e *DownloadError) Unwrap() error { return e.Cause }
