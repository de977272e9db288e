package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/defaults"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Storage implements the Storage interface for interacting with AWS S3.
type S3Storage struct {
	Config Config
	Client s3iface.S3API
}

// NewS3Storage creates a new S3Storage with a new aws.Session.
func NewS3Storage(config Config) S3Storage {
	return NewS3StorageWithClient(config, s3.New(newAWSSession(config)))
}

// NewS3StorageWithClient returns a new S3Storage with a given S3 client.
func NewS3StorageWithClient(config Config, client s3iface.S3API) S3Storage {
	return S3Storage{
		Config: config,
		Client: client,
	}
}

// Write writes the data to the key in the S3 Bucket, with Options applied.
func (s S3Storage) Write(ctx context.Context, key string, body []byte,
	options *Options) error {

	poi := s3.PutObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.buildKey(key)),
		Body:   bytes.NewReader(body),
	}

	if options != nil && options.TTL > 0 {
		expiry := time.Now().Add(time.Duration(options.TTL) * time.Second)
		poi.Expires = &expiry
	}

	if _, err := s.Client.PutObjectWithContext(ctx, &poi); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}

	return nil
}

// Read will read the data from the S3 Bucket.
func (s S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	document, err := s.Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.buildKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	defer document.Body.Close()

	b, err := io.ReadAll(document.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "read body %s", key)
	}

	return b, nil
}

// Remove removes the object stored at key, in the S3 Bucket.
func (s S3Storage) Remove(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(s.buildKey(key)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "remove %s", key)
	}

	return nil
}

// List returns every key under prefix, following continuation pages.
func (s S3Storage) List(ctx context.Context, prefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Config.Bucket),
		Prefix: aws.String(s.buildKey(prefix)),
	}

	var keys []string
	err := s.Client.ListObjectsV2PagesWithContext(ctx, input,
		func(out *s3.ListObjectsV2Output, last bool) bool {
			for _, o := range out.Contents {
				keys = append(keys, s.trimKey(aws.StringValue(o.Key)))
			}
			return true
		})
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", prefix)
	}

	sort.Strings(keys)
	return keys, nil
}

// buildKey places the key under Root, which acts as a folder in the bucket.
func (s S3Storage) buildKey(key string) string {
	if len(s.Config.Root) == 0 {
		return key
	}
	return s.Config.Root + "/" + key
}

func (s S3Storage) trimKey(key string) string {
	if len(s.Config.Root) == 0 {
		return key
	}
	if len(key) > len(s.Config.Root)+1 {
		return key[len(s.Config.Root)+1:]
	}
	return key
}

func isNoSuchKey(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		return aerr.Code() == s3.ErrCodeNoSuchKey
	}
	return false
}

// newAWSSession creates a new AWS Session from the credentials in the
// Config.
func newAWSSession(config Config) *session.Session {
	// Get the default cred chain
	awsDefaults := defaults.Get()
	defaultCredProviders := defaults.CredProviders(awsDefaults.Config, awsDefaults.Handlers)

	// Static credentials from config are tried first.
	staticCreds := &credentials.StaticProvider{Value: credentials.Value{
		AccessKeyID:     config.AccessKey,
		SecretAccessKey: config.Secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	}}

	customCredProviders := append([]credentials.Provider{staticCreds}, defaultCredProviders...)
	creds := credentials.NewChainCredentials(customCredProviders)

	awsConfig := aws.NewConfig().
		WithCredentials(creds).
		WithMaxRetries(config.MaxRetries)

	if len(config.Region) > 0 {
		awsConfig = awsConfig.WithRegion(config.Region)
	}

	return session.Must(session.NewSession(awsConfig))
}
