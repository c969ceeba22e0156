package s3vfs

import (
	"net/url"
	"strings"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

const scheme = "s3"

// parse splits a path of the form s3://bucket/key into (bucket, key). A
// leading slash on the key portion is consumed. When allowEmptyKey is false,
// an empty key (after stripping the leading slash) is rejected; operations
// that address the bucket itself, such as stat, pass true.
func parse(path string, allowEmptyKey bool) (bucket, key string, err error) {
	u, perr := url.Parse(path)
	if perr != nil {
		return "", "", vfserrors.Newf(vfserrors.InvalidArgument, "cannot parse path %q: %s", path, perr)
	}
	if u.Scheme != scheme {
		return "", "", vfserrors.Newf(vfserrors.InvalidArgument, "path %q does not use the %s:// scheme", path, scheme)
	}

	bucket = u.Host
	if bucket == "" || bucket == "." {
		return "", "", vfserrors.Newf(vfserrors.InvalidArgument, "path %q has an empty or invalid bucket", path)
	}

	key = strings.TrimPrefix(u.Path, "/")
	if key == "" && !allowEmptyKey {
		return "", "", vfserrors.Newf(vfserrors.InvalidArgument, "path %q has an empty key", path)
	}

	return bucket, key, nil
}

// withTrailingSlash appends '/' to a non-empty key that does not already end
// in one, used to canonicalize directory-like keys before listing or marker
// writes. An empty key (the bucket root) is returned unchanged.
func withTrailingSlash(key string) string {
	if key == "" || strings.HasSuffix(key, "/") {
		return key
	}
	return key + "/"
}
