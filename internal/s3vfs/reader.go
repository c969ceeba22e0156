package s3vfs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// randomAccessFile is the stateless byte-range reader returned by open-read.
// It issues one ranged GetObject per Read call; no state survives between
// calls.
type randomAccessFile struct {
	client s3API
	bucket string
	key    string
}

func newRandomAccessFile(client s3API, bucket, key string) *randomAccessFile {
	return &randomAccessFile{client: client, bucket: bucket, key: key}
}

// Read issues bytes=offset-(offset+len(buf)-1) against the object and copies
// the response into buf. A 416 (range not satisfiable) response is the
// conventional end-of-file signal and is reported as OutOfRange with 0 bytes.
func (r *randomAccessFile) Read(ctx context.Context, offset int64, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	rng := fmt.Sprintf("bytes=%d-%d", offset, offset+int64(len(buf))-1)
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(rng),
	})
	if err != nil {
		if isRangeNotSatisfiable(err) {
			return 0, vfserrors.New(vfserrors.OutOfRange, "read past end of object")
		}
		return 0, vfserrors.Wrap(classifySDKError(err), err, "GetObject range read")
	}
	defer out.Body.Close()

	n, err := io.ReadFull(out.Body, buf[:min(int64(len(buf)), aws.ToInt64(out.ContentLength))])
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return n, vfserrors.Wrap(vfserrors.Unknown, err, "reading range response body")
	}
	return n, nil
}

// isRangeNotSatisfiable reports whether err is S3's 416 response for a range
// request past the end of the object.
func isRangeNotSatisfiable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidRange", "RequestedRangeNotSatisfiable":
			return true
		}
	}
	var re interface{ HTTPStatusCode() int }
	if errors.As(err, &re) && re.HTTPStatusCode() == 416 {
		return true
	}
	return false
}
