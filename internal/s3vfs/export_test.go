package s3vfs

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"golang.org/x/sync/semaphore"

	"github.com/vfsbridge/s3vfs/pkg/retry"
)

// staticSource is a clientSource that always hands back a fixed
// client/uploader pair, bypassing AWS SDK config loading entirely. Tests use
// it to inject a mock s3API without touching the process-wide provider.
type staticSource struct {
	client   s3API
	uploader *manager.Uploader
	executor *semaphore.Weighted
}

func (s staticSource) get(context.Context) (s3API, *manager.Uploader, *semaphore.Weighted, error) {
	exec := s.executor
	if exec == nil {
		exec = semaphore.NewWeighted(transferExecutorSize)
	}
	return s.client, s.uploader, exec, nil
}

// newTestFilesystem builds a Filesystem backed by a static client source, for
// tests that exercise the façade without a live S3 endpoint.
func newTestFilesystem(client s3API, uploader *manager.Uploader) *Filesystem {
	return &Filesystem{p: staticSource{client: client, uploader: uploader}}
}

// newTestRetryingFilesystem wraps fs with zero-delay retryers so retry-path
// tests run without real backoff sleeps.
func newTestRetryingFilesystem(fs *Filesystem) *RetryingFilesystem {
	return &RetryingFilesystem{
		inner: fs,
		r:     retry.New(0, nil),
		fileR: retry.New(0, nil),
	}
}
