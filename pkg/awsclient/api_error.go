package awsclient

import (
	"errors"

	"github.com/aws/smithy-go"

	apperrors "github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
)

// wrapAPIError classifies a generic AWS API failure so the monitors can tell
// transient faults from permanent ones. Throttling and server faults are
// retryable connection errors; request timeouts keep their own type so
// callers can distinguish a slow service from a refusing one.
func wrapAPIError(op, resource string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "Throttling", "RequestThrottled",
			"TooManyRequestsException", "ProvisionedThroughputExceededException", "SlowDown":
			return apperrors.NewMonitorError(apperrors.ErrorTypeConnection, op, resource, err)
		case "RequestTimeout", "RequestTimeoutException":
			return apperrors.NewMonitorError(apperrors.ErrorTypeTimeout, op, resource, err)
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return apperrors.NewMonitorError(apperrors.ErrorTypeConnection, op, resource, err)
		}
	}
	return apperrors.WrapFetchError(op, resource, err)
}
