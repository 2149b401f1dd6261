package geo

import "errors"

// Lookup errors.
var (
	// ErrProviderParse indicates the provider answered with something unusable
	ErrProviderParse = errors.New("provider response could not be parsed")

	// ErrProviderRequest indicates the request to the provider failed
	ErrProviderRequest = errors.New("provider request failed")

	// ErrProviderTimeout indicates the provider did not answer in time
	ErrProviderTimeout = errors.New("provider timed out")

	// ErrAllProvidersFailed indicates every provider in the chain failed
	ErrAllProvidersFailed = errors.New("all geolocation providers failed")

	// ErrMissingAPIKey indicates a keyed provider was selected without a key
	ErrMissingAPIKey = errors.New("provider requires an API key")

	// ErrUnsupportedService indicates an unknown provider name
	ErrUnsupportedService = errors.New("unsupported geolocation service")

	// ErrNoLocalData indicates the offline database has no usable answer
	ErrNoLocalData = errors.New("no local geolocation data")
)
