package s3vfs

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// copyPartSize is the server-side copy part size.
const copyPartSize = 5 << 20 // 5 MiB

// maxCopyPartAttempts is the number of attempts per part before the whole
// copy is abandoned; there is no backoff between these attempts.
const maxCopyPartAttempts = 3

// multipartCopy duplicates an object of the given length from
// (srcBucket, srcKey) to (tgtBucket, tgtKey) using CreateMultipartUpload +
// UploadPartCopy + CompleteMultipartUpload. Part copies run concurrently,
// bounded by the shared transfer executor. Part count is a ceiling division
// and parts are numbered from 1, matching what CompleteMultipartUpload
// expects.
func multipartCopy(ctx context.Context, client s3API, executor *semaphore.Weighted, srcBucket, srcKey, tgtBucket, tgtKey string, length int64) error {
	if length == 0 {
		return singlePartCopy(ctx, client, srcBucket, srcKey, tgtBucket, tgtKey)
	}

	partCount := ceilDiv(length, copyPartSize)

	create, err := client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(tgtBucket),
		Key:         aws.String(tgtKey),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return vfserrors.Wrap(classifySDKError(err), err, "CreateMultipartUpload")
	}
	uploadID := aws.ToString(create.UploadId)

	parts := make([]types.CompletedPart, partCount)
	copySource := srcBucket + "/" + url.PathEscape(srcKey)

	g, gctx := errgroup.WithContext(ctx)
	for i := int64(1); i <= partCount; i++ {
		partNumber := i
		g.Go(func() error {
			if err := executor.Acquire(gctx, 1); err != nil {
				return vfserrors.Wrap(vfserrors.DeadlineExceeded, err, "canceled waiting for transfer executor")
			}
			defer executor.Release(1)

			start := (partNumber - 1) * copyPartSize
			end := min(start+copyPartSize-1, length-1)
			rng := fmt.Sprintf("bytes=%d-%d", start, end)

			var lastErr error
			for attempt := 1; attempt <= maxCopyPartAttempts; attempt++ {
				if err := gctx.Err(); err != nil {
					return vfserrors.Wrap(vfserrors.DeadlineExceeded, err, "canceled during part copy")
				}

				out, copyErr := client.UploadPartCopy(gctx, &s3.UploadPartCopyInput{
					Bucket:          aws.String(tgtBucket),
					Key:             aws.String(tgtKey),
					UploadId:        aws.String(uploadID),
					PartNumber:      aws.Int32(int32(partNumber)),
					CopySource:      aws.String(copySource),
					CopySourceRange: aws.String(rng),
				})
				if copyErr == nil {
					parts[partNumber-1] = types.CompletedPart{
						ETag:       out.CopyPartResult.ETag,
						PartNumber: aws.Int32(int32(partNumber)),
					}
					return nil
				}
				lastErr = copyErr
			}
			return vfserrors.Wrap(classifySDKError(lastErr), lastErr,
				fmt.Sprintf("UploadPartCopy part %d failed after %d attempts", partNumber, maxCopyPartAttempts))
		})
	}

	if err := g.Wait(); err != nil {
		_ = abortMultipartUpload(ctx, client, tgtBucket, tgtKey, uploadID)
		return err
	}

	_, err = client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(tgtBucket),
		Key:             aws.String(tgtKey),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		_ = abortMultipartUpload(ctx, client, tgtBucket, tgtKey, uploadID)
		return vfserrors.Wrap(classifySDKError(err), err, "CompleteMultipartUpload")
	}

	return nil
}

// singlePartCopy handles the zero-length-object edge case, where a
// multipart upload with no parts would be rejected by S3.
func singlePartCopy(ctx context.Context, client s3API, srcBucket, srcKey, tgtBucket, tgtKey string) error {
	_, err := client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(tgtBucket),
		Key:        aws.String(tgtKey),
		CopySource: aws.String(srcBucket + "/" + url.PathEscape(srcKey)),
	})
	if err != nil {
		return vfserrors.Wrap(classifySDKError(err), err, "CopyObject")
	}
	return nil
}

func abortMultipartUpload(ctx context.Context, client s3API, bucket, key, uploadID string) error {
	_, err := client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	return err
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
