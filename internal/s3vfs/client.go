package s3vfs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/semaphore"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// transferExecutorSize is the fixed worker-pool size bounding concurrent
// multipart part uploads and part copies.
const transferExecutorSize = 5

// clientSource hands back the shared client, uploader, and transfer
// executor a Filesystem needs. *provider is the production implementation;
// tests substitute a static source to bypass AWS SDK config loading.
type clientSource interface {
	get(ctx context.Context) (s3API, *manager.Uploader, *semaphore.Weighted, error)
}

// provider lazily constructs and memoizes the S3 client, the transfer
// manager, and the semaphore standing in for the transfer executor. All
// three are process-wide singletons: initialization happens once, under mu,
// and the environment is read exactly once to build them.
type provider struct {
	mu       sync.Mutex
	once     sync.Once
	initErr  error
	cfg      *Config
	client   *s3.Client
	uploader *manager.Uploader
	executor *semaphore.Weighted
}

func newProvider() *provider {
	return &provider{}
}

// get returns the memoized client, uploader, and executor, initializing them
// on first call. Initialization is idempotent and safe for concurrent callers.
func (p *provider) get(ctx context.Context) (s3API, *manager.Uploader, *semaphore.Weighted, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.once.Do(func() {
		p.cfg = loadConfigFromEnv()

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(p.cfg.Region),
		)
		if err != nil {
			p.initErr = vfserrors.Wrap(vfserrors.Unknown, err, "loading AWS SDK configuration")
			return
		}

		if p.cfg.ConnectTimeout > 0 || p.cfg.RequestTimeout > 0 ||
			!p.cfg.VerifySSL || p.cfg.CAFile != "" || p.cfg.CAPath != "" {
			awsCfg.HTTPClient = newHTTPClient(p.cfg)
		}

		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			// Path-style addressing is mandatory: bucket names containing
			// '.' break TLS hostname validation under virtual-hosted style.
			o.UsePathStyle = true
			if p.cfg.Endpoint != "" {
				scheme := "https"
				if !p.cfg.UseHTTPS {
					scheme = "http"
				}
				o.BaseEndpoint = aws.String(scheme + "://" + p.cfg.Endpoint)
			}
		})

		p.client = client
		p.uploader = manager.NewUploader(client, func(u *manager.Uploader) {
			u.Concurrency = transferExecutorSize
		})
		p.executor = semaphore.NewWeighted(transferExecutorSize)
	})

	return p.client, p.uploader, p.executor, p.initErr
}

func newHTTPClient(cfg *Config) *http.Client {
	transport := &http.Transport{}
	if cfg.ConnectTimeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext
	}
	tlsCfg := &tls.Config{}
	if !cfg.VerifySSL {
		tlsCfg.InsecureSkipVerify = true //nolint:gosec // opt-in via S3_VERIFY_SSL=0
	}
	if pool := loadTrustAnchors(cfg.CAFile, cfg.CAPath); pool != nil {
		tlsCfg.RootCAs = pool
	}
	transport.TLSClientConfig = tlsCfg
	hc := &http.Client{Transport: transport}
	if cfg.RequestTimeout > 0 {
		hc.Timeout = cfg.RequestTimeout
	}
	return hc
}

// loadTrustAnchors builds a certificate pool from S3_CA_FILE and every PEM
// under S3_CA_PATH. Returns nil when neither is set or nothing parses, so
// the default system roots stay in effect.
func loadTrustAnchors(caFile, caPath string) *x509.CertPool {
	if caFile == "" && caPath == "" {
		return nil
	}
	pool := x509.NewCertPool()
	loaded := false

	if caFile != "" {
		if pem, err := os.ReadFile(caFile); err == nil && pool.AppendCertsFromPEM(pem) {
			loaded = true
		}
	}
	if caPath != "" {
		entries, err := os.ReadDir(caPath)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				if pem, err := os.ReadFile(filepath.Join(caPath, e.Name())); err == nil && pool.AppendCertsFromPEM(pem) {
					loaded = true
				}
			}
		}
	}

	if !loaded {
		return nil
	}
	return pool
}
