package checker

import "fmt"

// ConfigError reports unusable watch configuration, e.g. a missing appcast
// URL. The check is aborted and not retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s", e.Reason)
}

// TransportError reports a failed retrieval of the appcast document. Retry
// and backoff are the scheduler's concern, not the workflow's.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to fetch appcast %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
