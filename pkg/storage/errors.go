package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig      = errors.New("storage: invalid configuration")
	ErrNotConfigured      = errors.New("storage: not configured")
	ErrUnsupportedType    = errors.New("storage: unsupported file type")
	ErrNotFound           = errors.New("storage: file not found")
	ErrAccessDenied       = errors.New("storage: access denied")
	ErrDeleteFailed       = errors.New("storage: delete failed")
	ErrPresignFailed      = errors.New("storage: presign failed")
	ErrHeadFailed         = errors.New("storage: head failed")
	ErrInvalidKeySegments = errors.New("storage: key has no usable segments")
)

// wrapS3Error maps AWS errors onto the package sentinels.
// The cause is formatted with %v so callers match on sentinels only.
func wrapS3Error(err, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
