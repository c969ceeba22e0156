// Package s3vfs exposes a POSIX-like filesystem over Amazon S3 or any
// S3-compatible endpoint: random-access reads, buffered writes with
// multipart upload, append, prefix listing, stat, delete, and rename, with
// every operation wrapped in an exponential-backoff retry envelope.
//
// The client is configured from the environment (S3_ENDPOINT, AWS_REGION,
// S3_USE_HTTPS, ...) once, at first use. Paths use the s3://bucket/key
// scheme.
package s3vfs

import (
	internal "github.com/vfsbridge/s3vfs/internal/s3vfs"
)

// FileStat is the metadata reported for a path.
type FileStat = internal.FileStat

// RandomAccessFile is the stateless byte-range reader returned by OpenRead.
type RandomAccessFile = internal.RandomAccessFile

// WritableFile is the buffered writer returned by OpenWrite and OpenAppend.
type WritableFile = internal.WritableFile

// ReadOnlyMemoryRegion is the owning snapshot returned by ReadRegion.
type ReadOnlyMemoryRegion = internal.ReadOnlyMemoryRegion

// Filesystem is the retrying S3 filesystem adapter.
type Filesystem = internal.RetryingFilesystem

// New returns a filesystem adapter whose every operation, and every
// operation of every file handle it returns, runs inside the retry
// envelope. Construction performs no network I/O; the S3 client is built
// lazily on first use.
func New() *Filesystem {
	return internal.NewRetryingFilesystem(internal.NewFilesystem())
}
