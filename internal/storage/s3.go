package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lovenest/internal/config"
)

// S3Store 把上传文件写入 S3 兼容的对象存储（R2），返回 CDN 公网地址
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store 根据配置构造 S3Store。凭据或桶名缺失视为致命配置错误。
func NewS3Store(cfg config.AppConfig) (*S3Store, error) {
	if cfg.S3AccessKeyID == "" || cfg.S3AccessKeySecret == "" || cfg.S3Bucket == "" {
		return nil, errors.New("s3 storage requires access key, secret and bucket")
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.S3AccountID)
	baseURL := cfg.CDNBaseURL
	if baseURL == "" {
		baseURL = endpoint
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID, cfg.S3AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &S3Store{client: client, bucket: cfg.S3Bucket, baseURL: baseURL}, nil
}

// Save 上传对象并返回公网 URL
func (s *S3Store) Save(file *multipart.FileHeader, key string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, src); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	if _, err := s.client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        buf,
		ContentType: aws.String(file.Header.Get("Content-Type")),
	}); err != nil {
		return "", fmt.Errorf("upload to bucket: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}
