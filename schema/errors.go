package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")
	ErrNotFound = errors.New("not_found")

	// admission results surfaced to the http layer
	ErrMalformedRequest   = errors.New("malformed_request")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")

	ErrEmptyBatch = errors.New("empty_batch")
)
