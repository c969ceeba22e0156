// Package s3vfs implements a POSIX-like filesystem façade over an S3 (or
// S3-compatible) object store: open-read/open-write/open-append, range
// reads, stat, list, delete, rename, and directory markers on a flat
// namespace, wrapped in a retry decorator that applies exponential backoff
// with jitter and delete idempotence to every operation.
//
// Data flow: a caller goes through RetryingFilesystem, which invokes
// Filesystem; Filesystem uses the path parser and a lazily-initialized
// client provider, and returns reader/writer handles that the
// RetryingFilesystem wraps in the same retry envelope.
package s3vfs
