package s3vfs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 is a function-field test double for s3API: each method delegates to
// the corresponding field if set, else returns a zero value and nil error.
// Tests populate only the fields the scenario under test exercises. The
// putObject and uploadPart fields exist so a fakeS3 also satisfies
// manager.UploadAPIClient and can back a real manager.Uploader.
type fakeS3 struct {
	getObject               func(context.Context, *s3.GetObjectInput) (*s3.GetObjectOutput, error)
	headObject              func(context.Context, *s3.HeadObjectInput) (*s3.HeadObjectOutput, error)
	headBucket              func(context.Context, *s3.HeadBucketInput) (*s3.HeadBucketOutput, error)
	listObjectsV2           func(context.Context, *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	deleteObject            func(context.Context, *s3.DeleteObjectInput) (*s3.DeleteObjectOutput, error)
	copyObject              func(context.Context, *s3.CopyObjectInput) (*s3.CopyObjectOutput, error)
	putObject               func(context.Context, *s3.PutObjectInput) (*s3.PutObjectOutput, error)
	uploadPart              func(context.Context, *s3.UploadPartInput) (*s3.UploadPartOutput, error)
	createMultipartUpload   func(context.Context, *s3.CreateMultipartUploadInput) (*s3.CreateMultipartUploadOutput, error)
	uploadPartCopy          func(context.Context, *s3.UploadPartCopyInput) (*s3.UploadPartCopyOutput, error)
	completeMultipartUpload func(context.Context, *s3.CompleteMultipartUploadInput) (*s3.CompleteMultipartUploadOutput, error)
	abortMultipartUpload    func(context.Context, *s3.AbortMultipartUploadInput) (*s3.AbortMultipartUploadOutput, error)
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putObject == nil {
		return &s3.PutObjectOutput{}, nil
	}
	return f.putObject(ctx, in)
}

func (f *fakeS3) UploadPart(ctx context.Context, in *s3.UploadPartInput, _ ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	if f.uploadPart == nil {
		return &s3.UploadPartOutput{}, nil
	}
	return f.uploadPart(ctx, in)
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getObject == nil {
		return &s3.GetObjectOutput{}, nil
	}
	return f.getObject(ctx, in)
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headObject == nil {
		return &s3.HeadObjectOutput{}, nil
	}
	return f.headObject(ctx, in)
}

func (f *fakeS3) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if f.headBucket == nil {
		return &s3.HeadBucketOutput{}, nil
	}
	return f.headBucket(ctx, in)
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listObjectsV2 == nil {
		return &s3.ListObjectsV2Output{}, nil
	}
	return f.listObjectsV2(ctx, in)
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteObject == nil {
		return &s3.DeleteObjectOutput{}, nil
	}
	return f.deleteObject(ctx, in)
}

func (f *fakeS3) CopyObject(ctx context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	if f.copyObject == nil {
		return &s3.CopyObjectOutput{}, nil
	}
	return f.copyObject(ctx, in)
}

func (f *fakeS3) CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	if f.createMultipartUpload == nil {
		return &s3.CreateMultipartUploadOutput{}, nil
	}
	return f.createMultipartUpload(ctx, in)
}

func (f *fakeS3) UploadPartCopy(ctx context.Context, in *s3.UploadPartCopyInput, _ ...func(*s3.Options)) (*s3.UploadPartCopyOutput, error) {
	if f.uploadPartCopy == nil {
		return &s3.UploadPartCopyOutput{}, nil
	}
	return f.uploadPartCopy(ctx, in)
}

func (f *fakeS3) CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, _ ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	if f.completeMultipartUpload == nil {
		return &s3.CompleteMultipartUploadOutput{}, nil
	}
	return f.completeMultipartUpload(ctx, in)
}

func (f *fakeS3) AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, _ ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	if f.abortMultipartUpload == nil {
		return &s3.AbortMultipartUploadOutput{}, nil
	}
	return f.abortMultipartUpload(ctx, in)
}
