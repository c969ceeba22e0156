package s3vfs

import (
	"errors"

	"github.com/aws/smithy-go"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// isNotFound reports whether err is any of the S3 "doesn't exist" responses:
// NoSuchKey, NoSuchBucket, or the generic NotFound code HeadObject/HeadBucket
// return for a 404 with no body.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return true
	default:
		return false
	}
}

// classifySDKError maps an AWS SDK error into the adapter's error kinds.
// NotFound is never retriable on its own; throttling and service-timeout
// codes map to Unavailable, SDK cancellation maps to DeadlineExceeded, and
// everything else is mapped to Unknown. The default retryable set treats
// all three of those as transient.
func classifySDKError(err error) vfserrors.Kind {
	if err == nil {
		return ""
	}
	if isNotFound(err) {
		return vfserrors.NotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "RequestTimeTooSkewed":
			return vfserrors.Unavailable
		}
	}

	var ce interface{ CanceledError() bool }
	if errors.As(err, &ce) && ce.CanceledError() {
		return vfserrors.DeadlineExceeded
	}

	return vfserrors.Unknown
}
