package s3vfs

import (
	"context"
	"runtime"
	"time"

	"github.com/vfsbridge/s3vfs/pkg/retry"
)

// defaultInitialDelay is the base backoff for the façade-level retryer.
const defaultInitialDelay = 1 * time.Second

// wrappingInitialDelay is the base backoff used by the decorator that wraps
// the file handles a RetryingFilesystem returns.
const wrappingInitialDelay = 100 * time.Millisecond

// RetryingFilesystem decorates a Filesystem so every façade method and every
// handle method it returns runs inside the retry envelope from pkg/retry.
type RetryingFilesystem struct {
	inner *Filesystem
	r     *retry.Retryer
	fileR *retry.Retryer
}

// NewRetryingFilesystem wraps fs with the default retriable set, a 1 s
// initial delay for façade-level calls, and a 100 ms initial delay for the
// file handles it returns.
func NewRetryingFilesystem(fs *Filesystem) *RetryingFilesystem {
	return &RetryingFilesystem{
		inner: fs,
		r:     retry.New(defaultInitialDelay, nil),
		fileR: retry.New(wrappingInitialDelay, nil),
	}
}

func (rf *RetryingFilesystem) OpenRead(ctx context.Context, path string) (RandomAccessFile, error) {
	var h RandomAccessFile
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		h, err = rf.inner.OpenRead(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &retryingRandomAccessFile{inner: h, r: rf.fileR}, nil
}

func (rf *RetryingFilesystem) OpenWrite(ctx context.Context, path string) (WritableFile, error) {
	var h WritableFile
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		h, err = rf.inner.OpenWrite(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newRetryingWritableFile(h, rf.fileR), nil
}

func (rf *RetryingFilesystem) OpenAppend(ctx context.Context, path string) (WritableFile, error) {
	var h WritableFile
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		h, err = rf.inner.OpenAppend(ctx, path)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newRetryingWritableFile(h, rf.fileR), nil
}

func (rf *RetryingFilesystem) ReadRegion(ctx context.Context, path string) (ReadOnlyMemoryRegion, error) {
	var region ReadOnlyMemoryRegion
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		region, err = rf.inner.ReadRegion(ctx, path)
		return err
	})
	return region, err
}

func (rf *RetryingFilesystem) Exists(ctx context.Context, path string) (bool, error) {
	var exists bool
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		exists, err = rf.inner.Exists(ctx, path)
		return err
	})
	return exists, err
}

func (rf *RetryingFilesystem) Stat(ctx context.Context, path string) (FileStat, error) {
	var st FileStat
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		st, err = rf.inner.Stat(ctx, path)
		return err
	})
	return st, err
}

func (rf *RetryingFilesystem) List(ctx context.Context, dir string) ([]string, error) {
	var entries []string
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		entries, err = rf.inner.List(ctx, dir)
		return err
	})
	return entries, err
}

func (rf *RetryingFilesystem) DeleteFile(ctx context.Context, path string) error {
	return retry.DeleteWithRetries(ctx, rf.r, func(ctx context.Context) error {
		return rf.inner.DeleteFile(ctx, path)
	})
}

func (rf *RetryingFilesystem) CreateDir(ctx context.Context, path string) error {
	return retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		return rf.inner.CreateDir(ctx, path)
	})
}

// DeleteDir's directory-not-empty signal is deliberately retriable so this
// retry wrapping doubles as eventual-consistency polling: a directory that
// looks non-empty from a stale listing clears on a later attempt.
func (rf *RetryingFilesystem) DeleteDir(ctx context.Context, path string) error {
	return retry.DeleteWithRetries(ctx, rf.r, func(ctx context.Context) error {
		return rf.inner.DeleteDir(ctx, path)
	})
}

func (rf *RetryingFilesystem) Rename(ctx context.Context, src, tgt string) error {
	return retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		return rf.inner.Rename(ctx, src, tgt)
	})
}

func (rf *RetryingFilesystem) FileSize(ctx context.Context, path string) (uint64, error) {
	var size uint64
	err := retry.CallWithRetries(ctx, rf.r, func(ctx context.Context) error {
		var err error
		size, err = rf.inner.FileSize(ctx, path)
		return err
	})
	return size, err
}

// retryingRandomAccessFile wraps a RandomAccessFile so Read is retried.
type retryingRandomAccessFile struct {
	inner RandomAccessFile
	r     *retry.Retryer
}

func (f *retryingRandomAccessFile) Read(ctx context.Context, offset int64, buf []byte) (int, error) {
	var n int
	err := retry.CallWithRetries(ctx, f.r, func(ctx context.Context) error {
		var err error
		n, err = f.inner.Read(ctx, offset, buf)
		return err
	})
	return n, err
}

// retryingWritableFile wraps a WritableFile so every method is retried. Its
// finalizer invokes Close (ignoring the error) to preserve the "no data loss
// on drop" guarantee even if the caller forgets to close explicitly.
type retryingWritableFile struct {
	inner  WritableFile
	r      *retry.Retryer
	closed bool
}

// newRetryingWritableFile wraps inner and arms a finalizer that calls Close
// (ignoring its error) if the caller drops the handle without closing it.
func newRetryingWritableFile(inner WritableFile, r *retry.Retryer) *retryingWritableFile {
	f := &retryingWritableFile{inner: inner, r: r}
	runtime.SetFinalizer(f, func(f *retryingWritableFile) {
		if !f.closed {
			_ = f.Close(context.Background())
		}
	})
	return f
}

func (f *retryingWritableFile) Append(ctx context.Context, b []byte) error {
	return retry.CallWithRetries(ctx, f.r, func(ctx context.Context) error {
		return f.inner.Append(ctx, b)
	})
}

func (f *retryingWritableFile) Sync(ctx context.Context) error {
	return retry.CallWithRetries(ctx, f.r, func(ctx context.Context) error {
		return f.inner.Sync(ctx)
	})
}

func (f *retryingWritableFile) Flush(ctx context.Context) error {
	return retry.CallWithRetries(ctx, f.r, func(ctx context.Context) error {
		return f.inner.Flush(ctx)
	})
}

func (f *retryingWritableFile) Close(ctx context.Context) error {
	f.closed = true
	return retry.CallWithRetries(ctx, f.r, func(ctx context.Context) error {
		return f.inner.Close(ctx)
	})
}
