package core

import (
	"errors"
	"fmt"
)

// ConnectivityMessage is what users see when the booking service cannot be reached.
const ConnectivityMessage = "Cannot connect to server. Please make sure the booking service is running."

// ConnectivityError covers transport failures and malformed responses.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: booking service unreachable: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// OperationRejected is returned when the service answers success:false.
// Reason is the server message verbatim and may be empty.
type OperationRejected struct {
	Op     string
	Reason string
}

func (e *OperationRejected) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: rejected by booking service", e.Op)
	}
	return fmt.Sprintf("%s: rejected by booking service: %s", e.Op, e.Reason)
}

func IsConnectivity(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

func IsRejected(err error) bool {
	var target *OperationRejected
	return errors.As(err, &target)
}

// UserMessage picks the text to surface for err: the server reason when the
// service rejected the operation with one, the connectivity message for
// transport problems, and fallback otherwise.
func UserMessage(err error, fallback string) string {
	var rejected *OperationRejected
	if errors.As(err, &rejected) {
		if rejected.Reason != "" {
			return rejected.Reason
		}
		return fallback
	}
	if IsConnectivity(err) {
		return ConnectivityMessage
	}
	return fallback
}
