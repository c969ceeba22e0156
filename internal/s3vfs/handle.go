package s3vfs

import "context"

// RandomAccessFile is a stateless byte-range reader bound to a single
// object. Reads may return fewer bytes than requested; callers must cope.
type RandomAccessFile interface {
	// Read issues a single ranged GET for [offset, offset+len(buf)) and
	// copies the response into buf, returning the number of bytes copied.
	// A read positioned at or past end-of-file returns (0, vfserrors.OutOfRange).
	Read(ctx context.Context, offset int64, buf []byte) (int, error)
}

// WritableFile buffers appended bytes locally and uploads them to the
// object store on Sync/Close.
type WritableFile interface {
	// Append writes b to the local spill file and marks the handle dirty.
	Append(ctx context.Context, b []byte) error

	// Sync uploads the spill file's full contents if dirty, then seeks the
	// spill file back to the pre-sync write offset so later Appends resume
	// correctly. A no-op when nothing has been appended since the last Sync.
	Sync(ctx context.Context) error

	// Flush is Sync.
	Flush(ctx context.Context) error

	// Close performs a final Sync and releases the spill file. Idempotent.
	Close(ctx context.Context) error
}

// ReadOnlyMemoryRegion is an owning, in-memory snapshot of a whole object.
type ReadOnlyMemoryRegion interface {
	// Data returns the slurped bytes. The slice is valid for the region's
	// lifetime and must not be mutated by the caller.
	Data() []byte

	// Length is len(Data()).
	Length() int
}
