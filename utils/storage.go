package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/princinho/moviecatalog/config"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/metrics"
	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/api/option"
)

// ObjectStorage stores an object and returns its public URL.
type ObjectStorage interface {
	Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
	Provider() string
	Close() error
}

// NewObjectStorage builds the store selected by cfg.Provider wrapped in a
// circuit breaker. Provider "none" yields a nil store.
func NewObjectStorage(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	var (
		store ObjectStorage
		err   error
	)
	switch cfg.Provider {
	case "", "none":
		return nil, nil
	case "gcs":
		store, err = NewGCSStorage(ctx, cfg)
	case "s3":
		store, err = NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewBreakerStorage(store), nil
}

// GCSStorage writes to a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket string
}

func NewGCSStorage(ctx context.Context, cfg config.StorageConfig) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}
	return &GCSStorage{client: client, bucket: cfg.Bucket}, nil
}

func (g *GCSStorage) Provider() string { return "gcs" }

func (g *GCSStorage) Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload close: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, objectName), nil
}

func (g *GCSStorage) Close() error { return g.client.Close() }

// S3Storage writes to any S3 compatible bucket. With an endpoint set it
// targets Cloudflare R2 style services using path-style addressing.
type S3Storage struct {
	client       *s3.Client
	bucket       string
	publicDomain string
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		client:       client,
		bucket:       cfg.Bucket,
		publicDomain: strings.TrimRight(cfg.PublicDomain, "/"),
	}, nil
}

func (s *S3Storage) Provider() string { return "s3" }

func (s *S3Storage) Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectName),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return s.PublicURL(objectName), nil
}

// PublicURL is "<public domain>/<bucket>/<object>".
func (s *S3Storage) PublicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicDomain, s.bucket, objectName)
}

func (s *S3Storage) Close() error { return nil }

// BreakerStorage stops calling an unhealthy object store for a while after
// repeated failures.
type BreakerStorage struct {
	next ObjectStorage
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreakerStorage(next ObjectStorage) *BreakerStorage {
	settings := gobreaker.Settings{
		Name:        "storage-" + next.Provider(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("storage circuit breaker state changed")
		},
	}
	return &BreakerStorage{next: next, cb: gobreaker.NewCircuitBreaker[string](settings)}
}

func (b *BreakerStorage) Provider() string { return b.next.Provider() }

func (b *BreakerStorage) Put(ctx context.Context, objectName, contentType string, body io.Reader) (string, error) {
	url, err := b.cb.Execute(func() (string, error) {
		return b.next.Put(ctx, objectName, contentType, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrStorageUnhealthy, err)
	}
	return url, err
}

func (b *BreakerStorage) State() gobreaker.State { return b.cb.State() }

func (b *BreakerStorage) Close() error { return b.next.Close() }

// ObjectName builds "<folder>/<slug>-<uuid><ext>" from an uploaded file name.
func ObjectName(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	slug := GenerateSlug(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if slug == "" {
		slug = "file"
	}
	if len(slug) > 48 {
		slug = strings.Trim(slug[:48], "-")
	}
	return fmt.Sprintf("%s/%s-%s%s", folder, slug, uuid.NewString(), ext)
}

// Uploader validates a multipart file and stores it.
type Uploader struct {
	store     ObjectStorage
	validator *FileValidator
	timeout   time.Duration
	folder    string
}

// NewUploader accepts a nil store; Upload then fails with ErrStorageDisabled.
func NewUploader(store ObjectStorage, cfg config.StorageConfig) *Uploader {
	return &Uploader{
		store:     store,
		validator: NewFileValidator(cfg),
		timeout:   cfg.Timeout,
		folder:    "images",
	}
}

func (u *Uploader) MaxSize() int64 { return u.validator.MaxSize() }

// Upload returns the public URL of the stored file.
func (u *Uploader) Upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	provider := "none"
	if u.store != nil {
		provider = u.store.Provider()
	}

	contentType, err := u.validator.ValidateFile(fh)
	if err != nil {
		metrics.Uploads.WithLabelValues(provider, "rejected").Inc()
		return "", err
	}
	if u.store == nil {
		metrics.Uploads.WithLabelValues(provider, "error").Inc()
		return "", ErrStorageDisabled
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	url, err := u.store.Put(ctx, ObjectName(u.folder, fh.Filename), contentType, f)
	if err != nil {
		metrics.Uploads.WithLabelValues(provider, "error").Inc()
		return "", err
	}
	metrics.Uploads.WithLabelValues(provider, "stored").Inc()
	logging.Ctx(ctx).Info().Str("provider", provider).Str("url", url).Msg("file uploaded")
	return url, nil
}
