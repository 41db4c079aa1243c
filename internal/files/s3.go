package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/GoSim-25-26J-441/erp-backend/config"
)

// ObjectAPI is the part of the S3 client the storage uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage keeps files in a bucket under an optional key prefix.
type S3Storage struct {
	client ObjectAPI
	bucket string
	prefix string
}

// NewS3Storage loads credentials from the default AWS chain.
func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 storage needs a bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewS3StorageWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

func NewS3StorageWithClient(client ObjectAPI, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Storage) key(filePath string) (string, error) {
	rel, err := cleanRel(filePath)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return rel, nil
	}
	prefix, err := cleanRel(s.prefix)
	if err != nil {
		return "", err
	}
	return path.Join(prefix, rel), nil
}

func (s *S3Storage) Save(ctx context.Context, r io.Reader, fileName, folder string) (string, error) {
	ext, err := checkName(fileName)
	if err != nil {
		return "", err
	}
	dir, err := folderOrDefault(folder)
	if err != nil {
		return "", err
	}
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}

	public := "/" + path.Join(dir, uniqueName(fileName, ext))
	key, err := s.key(public)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(public)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return public, nil
}

func (s *S3Storage) Open(ctx context.Context, filePath string) (io.ReadCloser, FileInfo, error) {
	key, err := s.key(filePath)
	if err != nil {
		return nil, FileInfo{}, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, FileInfo{}, s3NotFound(err)
	}
	info := FileInfo{
		Path:        filePath,
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
	}
	if info.ContentType == "" {
		info.ContentType = contentType(filePath)
	}
	return out.Body, info, nil
}

// Delete reports ErrNotFound for a missing object; S3 itself does not.
func (s *S3Storage) Delete(ctx context.Context, filePath string) error {
	if _, err := s.Stat(ctx, filePath); err != nil {
		return err
	}
	key, err := s.key(filePath)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) Exists(ctx context.Context, filePath string) (bool, error) {
	_, err := s.Stat(ctx, filePath)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *S3Storage) Stat(ctx context.Context, filePath string) (FileInfo, error) {
	key, err := s.key(filePath)
	if err != nil {
		return FileInfo{}, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return FileInfo{}, s3NotFound(err)
	}
	return FileInfo{
		Path:        filePath,
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: contentType(filePath),
	}, nil
}

func s3NotFound(err error) error {
	var (
		noKey *types.NoSuchKey
		nf    *types.NotFound
	)
	if errors.As(err, &noKey) || errors.As(err, &nf) {
		return ErrNotFound
	}
	return err
}
