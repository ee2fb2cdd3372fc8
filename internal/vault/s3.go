package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"pgs-go/internal/pgs"
)

// S3Vault stores ledger snapshots in an S3 bucket. Object keys mirror the
// filesystem layout: <prefix>/snapshots/<hostID>.db plus a .version marker.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

var _ pgs.Vault = (*S3Vault)(nil)

// S3Options configures the S3 vault backend. AccessKeyID and
// SecretAccessKey are optional; when empty the default AWS credential
// chain is used.
type S3Options struct {
	Bucket          string
	Prefix          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Vault creates a vault backed by an S3 bucket.
func NewS3Vault(ctx context.Context, name string, opts S3Options) (*S3Vault, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 vault requires a bucket")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Vault{
		name:     name,
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (v *S3Vault) key(parts ...string) string {
	all := append([]string{v.prefix, "snapshots"}, parts...)
	return path.Join(all...)
}

func (v *S3Vault) PutSnapshot(hostID string, r io.Reader, size int64, version int64) error {
	ctx := context.Background()

	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(hostID + ".db")),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}

	_, err = v.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(hostID + ".version")),
		Body:   strings.NewReader(strconv.FormatInt(version, 10)),
	})
	if err != nil {
		return fmt.Errorf("uploading version marker: %w", err)
	}
	return nil
}

func (v *S3Vault) GetSnapshot(hostID string, w io.Writer) error {
	ctx := context.Background()

	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(hostID + ".db")),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("snapshot not found for host: %s", hostID)
		}
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading snapshot: %w", err)
	}
	return nil
}

func (v *S3Vault) SnapshotVersion(hostID string) (int64, error) {
	ctx := context.Background()

	out, err := v.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.key(hostID + ".version")),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return 0, nil
		}
		return 0, fmt.Errorf("fetching version marker: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return 0, fmt.Errorf("reading version marker: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}
