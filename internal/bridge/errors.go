package bridge

import "errors"

var (
	// ErrUnknownEncoding is returned for an encoding other than json or msgpack.
	ErrUnknownEncoding = errors.New("bridge: unknown payload encoding")

	// ErrInvalidTopic is returned when a request arrives on a topic without a request ID.
	ErrInvalidTopic = errors.New("bridge: invalid request topic")

	// ErrDecodeFailed is returned when a request payload cannot be decoded.
	ErrDecodeFailed = errors.New("bridge: payload decode failed")

	// ErrNotStarted is returned by Stop before Start.
	ErrNotStarted = errors.New("bridge: not started")
)
