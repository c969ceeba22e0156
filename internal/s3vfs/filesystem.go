package s3vfs

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// listPageSize is the max-keys value used for every paginated ListObjectsV2
// call the façade issues.
const listPageSize = 100

// FileStat is the metadata the façade reports for a path.
type FileStat struct {
	Length      uint64
	IsDirectory bool
	MtimeNanos  int64
}

// Filesystem is the façade over the object store: open-read, open-write,
// open-append, read-region, stat, list, delete-file, create-dir,
// delete-dir, rename, exists, and file-size. It exclusively owns the client
// provider; file handles it returns share the client (and, for writers, the
// uploader) by reference.
type Filesystem struct {
	p      clientSource
	logger *slog.Logger
}

// NewFilesystem constructs a façade with its own lazily-initialized client
// provider. Construction never touches the network.
func NewFilesystem() *Filesystem {
	return &Filesystem{
		p:      newProvider(),
		logger: slog.Default().With("component", "s3vfs.filesystem"),
	}
}

// memRegion is the owning, read-only snapshot returned by ReadRegion.
type memRegion struct {
	data []byte
}

func (m *memRegion) Data() []byte { return m.data }
func (m *memRegion) Length() int  { return len(m.data) }

// logf logs at Info level if fs has a logger, and is a no-op otherwise (test
// filesystems constructed without one).
func (fs *Filesystem) logf(msg string, kv ...interface{}) {
	if fs.logger != nil {
		fs.logger.Info(msg, kv...)
	}
}

// OpenRead returns a stateless random-access reader bound to path. No
// network I/O is performed at open.
func (fs *Filesystem) OpenRead(ctx context.Context, path string) (RandomAccessFile, error) {
	bucket, key, err := parse(path, false)
	if err != nil {
		return nil, err
	}
	client, _, _, err := fs.p.get(ctx)
	if err != nil {
		return nil, err
	}
	return newRandomAccessFile(client, bucket, key), nil
}

// OpenWrite returns a fresh writable file with a truncated spill file.
func (fs *Filesystem) OpenWrite(ctx context.Context, path string) (WritableFile, error) {
	bucket, key, err := parse(path, false)
	if err != nil {
		return nil, err
	}
	client, uploader, _, err := fs.p.get(ctx)
	if err != nil {
		return nil, err
	}
	return newWritableFile(client, uploader, bucket, key)
}

// OpenAppend opens a reader on the existing object, streams its contents
// into a fresh writable file in 1 MiB chunks until OutOfRange, and returns
// the writer positioned to continue appending past the end of the existing
// data. Any non-OutOfRange read failure discards the writer.
func (fs *Filesystem) OpenAppend(ctx context.Context, path string) (WritableFile, error) {
	bucket, key, err := parse(path, false)
	if err != nil {
		return nil, err
	}
	client, uploader, _, err := fs.p.get(ctx)
	if err != nil {
		return nil, err
	}

	reader := newRandomAccessFile(client, bucket, key)
	writer, err := newWritableFile(client, uploader, bucket, key)
	if err != nil {
		return nil, err
	}

	if err := writer.seedFromReader(ctx, reader); err != nil {
		// Clear the dirty flag so Close releases the spill file without
		// uploading a partial copy over the existing object.
		writer.syncNeeded = false
		_ = writer.Close(ctx)
		return nil, err
	}
	return writer, nil
}

// ReadRegion stats path to learn its length, then issues a single read of
// that many bytes and returns an owning snapshot of them.
func (fs *Filesystem) ReadRegion(ctx context.Context, path string) (ReadOnlyMemoryRegion, error) {
	st, err := fs.Stat(ctx, path)
	if err != nil {
		return nil, err
	}

	reader, err := fs.OpenRead(ctx, path)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, st.Length)
	n, err := reader.Read(ctx, 0, buf)
	if err != nil && !vfserrors.IsKind(err, vfserrors.OutOfRange) {
		return nil, err
	}
	return &memRegion{data: buf[:n]}, nil
}

// Exists stats path and discards the result: success is (true, nil),
// NotFound is (false, nil), and any other error is returned as is.
func (fs *Filesystem) Exists(ctx context.Context, path string) (bool, error) {
	_, err := fs.Stat(ctx, path)
	if err == nil {
		return true, nil
	}
	if vfserrors.IsKind(err, vfserrors.NotFound) {
		return false, nil
	}
	return false, err
}

// FileSize stats path and projects Length.
func (fs *Filesystem) FileSize(ctx context.Context, path string) (uint64, error) {
	st, err := fs.Stat(ctx, path)
	if err != nil {
		return 0, err
	}
	return st.Length, nil
}

// Stat resolves path metadata: HeadBucket for bucket-level paths,
// HeadObject otherwise, then always also probe for a directory marker at
// key+"/", which overrides a same-named file hit.
func (fs *Filesystem) Stat(ctx context.Context, path string) (FileStat, error) {
	bucket, key, err := parse(path, true)
	if err != nil {
		return FileStat{}, err
	}
	client, _, _, err := fs.p.get(ctx)
	if err != nil {
		return FileStat{}, err
	}

	if key == "" {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			return FileStat{}, vfserrors.Wrap(classifySDKError(err), err, "HeadBucket")
		}
		return FileStat{IsDirectory: true}, nil
	}

	var (
		st    FileStat
		found bool
	)

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err == nil {
		st = FileStat{
			Length:     uint64(aws.ToInt64(head.ContentLength)),
			MtimeNanos: aws.ToTime(head.LastModified).UnixNano(),
		}
		found = true
	} else if !isNotFound(err) {
		return FileStat{}, vfserrors.Wrap(classifySDKError(err), err, "HeadObject")
	}

	listed, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(key + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return FileStat{}, vfserrors.Wrap(classifySDKError(err), err, "ListObjectsV2 (directory probe)")
	}
	if len(listed.Contents) > 0 {
		st = FileStat{
			IsDirectory: true,
			MtimeNanos:  aws.ToTime(listed.Contents[0].LastModified).UnixNano(),
		}
		found = true
	}

	if !found {
		return FileStat{}, vfserrors.New(vfserrors.NotFound, "no object, bucket, or directory marker at "+path)
	}
	return st, nil
}

// List ensures dir ends in "/" and returns common prefixes and content keys
// stripped of that prefix, paginating with delimiter "/" and max-keys 100.
func (fs *Filesystem) List(ctx context.Context, dir string) ([]string, error) {
	bucket, key, err := parse(dir, true)
	if err != nil {
		return nil, err
	}
	prefix := withTrailingSlash(key)

	client, _, _, err := fs.p.get(ctx)
	if err != nil {
		return nil, err
	}

	var entries []string
	var marker *string
	for {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			MaxKeys:           aws.Int32(listPageSize),
			ContinuationToken: marker,
		})
		if err != nil {
			return nil, vfserrors.Wrap(classifySDKError(err), err, "ListObjectsV2")
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name != "" {
				entries = append(entries, name)
			}
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" {
				entries = append(entries, name)
			}
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		marker = out.NextContinuationToken
	}

	return entries, nil
}

// DeleteFile issues a single DeleteObject.
func (fs *Filesystem) DeleteFile(ctx context.Context, path string) error {
	bucket, key, err := parse(path, false)
	if err != nil {
		return err
	}
	client, _, _, err := fs.p.get(ctx)
	if err != nil {
		return err
	}
	_, err = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return vfserrors.Wrap(classifySDKError(err), err, "DeleteObject")
	}
	return nil
}

// CreateDir verifies the bucket exists when key is empty; otherwise writes
// an empty marker object at key+"/" unless one already exists.
func (fs *Filesystem) CreateDir(ctx context.Context, path string) error {
	bucket, key, err := parse(path, true)
	if err != nil {
		return err
	}
	client, uploader, _, err := fs.p.get(ctx)
	if err != nil {
		return err
	}

	if key == "" {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			return vfserrors.Wrap(vfserrors.NotFound, err, "bucket does not exist: "+bucket)
		}
		return nil
	}

	markerKey := withTrailingSlash(key)
	exists, err := fs.Exists(ctx, "s3://"+bucket+"/"+markerKey)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	w, err := newWritableFile(client, uploader, bucket, markerKey)
	if err != nil {
		return err
	}
	// Nothing is appended to a marker, so mark the writer dirty to make
	// Close upload the empty object.
	w.syncNeeded = true
	return w.Close(ctx)
}

// DeleteDir ensures prefix ends in "/", lists at most 2 keys under it, and
// fails with a retriable Internal error if any content key other than the
// marker itself is present; a bare marker or an empty listing is deleted/
// treated as success.
func (fs *Filesystem) DeleteDir(ctx context.Context, path string) error {
	bucket, key, err := parse(path, true)
	if err != nil {
		return err
	}
	prefix := withTrailingSlash(key)

	client, _, _, err := fs.p.get(ctx)
	if err != nil {
		return err
	}

	out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(2),
	})
	if err != nil {
		return vfserrors.Wrap(classifySDKError(err), err, "ListObjectsV2")
	}

	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) != prefix {
			return vfserrors.New(vfserrors.Internal, "Cannot delete a non-empty directory.")
		}
	}

	for _, obj := range out.Contents {
		if aws.ToString(obj.Key) == prefix {
			_, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(prefix)})
			if err != nil {
				return vfserrors.Wrap(classifySDKError(err), err, "DeleteObject (directory marker)")
			}
		}
	}
	return nil
}

// Rename moves every object under the src prefix: paginated list, multipart
// server-side copy of each object to the corresponding tgt key, then delete
// of the source object. No rollback of previously-copied keys on failure.
func (fs *Filesystem) Rename(ctx context.Context, src, tgt string) error {
	srcBucket, srcKey, err := parse(src, false)
	if err != nil {
		return err
	}
	tgtBucket, tgtKey, err := parse(tgt, false)
	if err != nil {
		return err
	}

	srcIsDir := strings.HasSuffix(srcKey, "/")
	if srcIsDir {
		tgtKey = withTrailingSlash(tgtKey)
	} else {
		tgtKey = strings.TrimSuffix(tgtKey, "/")
	}

	client, _, executor, err := fs.p.get(ctx)
	if err != nil {
		return err
	}

	var marker *string
	for {
		out, err := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(srcBucket),
			Prefix:            aws.String(srcKey),
			MaxKeys:           aws.Int32(listPageSize),
			ContinuationToken: marker,
		})
		if err != nil {
			return vfserrors.Wrap(classifySDKError(err), err, "ListObjectsV2 (rename source)")
		}

		for _, obj := range out.Contents {
			objKey := aws.ToString(obj.Key)
			objTgtKey := tgtKey + strings.TrimPrefix(objKey, srcKey)

			if err := multipartCopy(ctx, client, executor, srcBucket, objKey, tgtBucket, objTgtKey, aws.ToInt64(obj.Size)); err != nil {
				fs.logf("rename copy failed", "src", objKey, "tgt", objTgtKey, "error", err)
				return err
			}
			if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(srcBucket),
				Key:    aws.String(objKey),
			}); err != nil {
				return vfserrors.Wrap(classifySDKError(err), err, "DeleteObject (rename source)")
			}
			fs.logf("renamed object", "src", objKey, "tgt", objTgtKey)
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		marker = out.NextContinuationToken
	}

	return nil
}
