package s3vfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// maxUploadRetries is the number of additional upload attempts a single
// Sync makes after the first upload fails, re-sending the whole spill file
// each time.
const maxUploadRetries = 5

// tmpFileCounter is the process-wide rolling disambiguator mixed into spill
// file names, mod 1000, guarded by its own mutex.
var tmpFileCounter struct {
	mu sync.Mutex
	n  int
}

func nextTmpFileSuffix() int {
	tmpFileCounter.mu.Lock()
	defer tmpFileCounter.mu.Unlock()
	tmpFileCounter.n = (tmpFileCounter.n + 1) % 1000
	return tmpFileCounter.n
}

// writableFile buffers Append-ed bytes in a local spill file and, on Sync,
// uploads the whole file via the shared transfer manager. Its states run
// Open -> Appending* -> Syncing -> Open|Closed: Append sets syncNeeded, a
// successful Sync clears it, and a successful Close leaves the file Closed.
type writableFile struct {
	mu sync.Mutex

	client   s3API
	uploader *manager.Uploader
	bucket   string
	key      string

	spill      *os.File
	spillPath  string
	syncNeeded bool
	closed     bool
	logger     *slog.Logger
}

// newWritableFile creates a uniquely-named spill file under the OS temp
// directory and returns a fresh writable file truncated to empty.
func newWritableFile(client s3API, uploader *manager.Uploader, bucket, key string) (*writableFile, error) {
	pattern := fmt.Sprintf("s3_filesystem_XXXXXX%d_*", nextTmpFileSuffix())
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, vfserrors.Wrap(vfserrors.Internal, err, "creating spill file")
	}
	return &writableFile{
		client:    client,
		uploader:  uploader,
		bucket:    bucket,
		key:       key,
		spill:     f,
		spillPath: f.Name(),
		logger:    slog.Default().With("component", "s3vfs.writer", "bucket", bucket, "key", key),
	}, nil
}

// Append writes b to the spill file and marks the handle dirty.
func (w *writableFile) Append(_ context.Context, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return vfserrors.New(vfserrors.FailedPrecondition, "append on a closed writable file")
	}
	if _, err := w.spill.Write(b); err != nil {
		return vfserrors.Wrap(vfserrors.Internal, err, "writing to spill file")
	}
	w.syncNeeded = true
	return nil
}

// Sync uploads the spill file's full contents if dirty. On completion it
// seeks the spill file back to the pre-sync write offset so subsequent
// Appends resume correctly; the upload always re-sends the whole file.
func (w *writableFile) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncLocked(ctx)
}

func (w *writableFile) syncLocked(ctx context.Context) error {
	if !w.syncNeeded {
		return nil
	}

	offset, err := w.spill.Seek(0, io.SeekCurrent)
	if err != nil {
		return vfserrors.Wrap(vfserrors.Internal, err, "reading spill file write offset")
	}

	var lastErr error
	var failedAttempts int
	for attempt := 0; attempt <= maxUploadRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			_, _ = w.spill.Seek(offset, io.SeekStart)
			return vfserrors.Wrap(vfserrors.DeadlineExceeded, err, "canceled before upload attempt")
		}

		if _, err := w.spill.Seek(0, io.SeekStart); err != nil {
			return vfserrors.Wrap(vfserrors.Internal, err, "rewinding spill file for upload")
		}

		_, uploadErr := w.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(w.bucket),
			Key:         aws.String(w.key),
			Body:        w.spill,
			ContentType: aws.String("application/octet-stream"),
		})
		if uploadErr == nil {
			lastErr = nil
			break
		}

		lastErr = uploadErr
		failedAttempts++
		w.logger.Warn("upload attempt failed", "attempt", attempt, "error", uploadErr)
	}

	if _, err := w.spill.Seek(offset, io.SeekStart); err != nil {
		return vfserrors.Wrap(vfserrors.Internal, err, "seeking spill file back to write offset")
	}

	if lastErr != nil {
		return vfserrors.Wrap(vfserrors.Unknown, lastErr,
			fmt.Sprintf("upload of spill file failed after %d attempts", failedAttempts))
	}

	w.syncNeeded = false
	return nil
}

// Flush is Sync.
func (w *writableFile) Flush(ctx context.Context) error {
	return w.Sync(ctx)
}

// Close performs a final Sync and releases the spill file. Idempotent. If
// the final Sync fails, the handle stays open with its spill file intact so
// Close can be retried.
func (w *writableFile) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	if err := w.syncLocked(ctx); err != nil {
		return err
	}

	w.closed = true
	_ = w.spill.Close()
	_ = os.Remove(w.spillPath)

	return nil
}

// seedFromReader copies the existing object's bytes into the spill file via
// Append, in appendChunkSize chunks, stopping at the first OutOfRange read.
// Used by open-append to prime a fresh writer with the current contents
// before the caller's own Appends extend it.
func (w *writableFile) seedFromReader(ctx context.Context, r *randomAccessFile) error {
	const appendChunkSize = 1 << 20 // 1 MiB

	buf := make([]byte, appendChunkSize)
	var offset int64
	for {
		n, err := r.Read(ctx, offset, buf)
		if err != nil {
			if vfserrors.IsKind(err, vfserrors.OutOfRange) {
				return nil
			}
			return err
		}
		if n == 0 {
			return nil
		}
		if err := w.Append(ctx, buf[:n]); err != nil {
			return err
		}
		offset += int64(n)
	}
}
