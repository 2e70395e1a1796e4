package source

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mh131105/TP1-BD/utils/logger"
)

const s3Scheme = "s3://"

// AWSConfig carries the optional settings used for s3:// inputs. Empty
// credentials fall back to the default chain (IAM role, instance profile,
// env vars, shared config).
type AWSConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Endpoint        string `json:"endpoint"` // Optional: for S3-compatible services like MinIO
}

func (c *AWSConfig) Validate() error {
	if c.Endpoint == "" && c.Region == "" {
		return fmt.Errorf("region is required when not using custom endpoint")
	}
	if (c.AccessKeyID != "" && c.SecretAccessKey == "") || (c.AccessKeyID == "" && c.SecretAccessKey != "") {
		return fmt.Errorf("access_key_id and secret_access_key must be provided together or both omitted (for IAM role authentication)")
	}
	return nil
}

// Input is one opened dump stream. Close releases the wrapped handles in
// reverse order of wrapping (decompressor before the raw stream).
type Input struct {
	io.Reader
	Name    string
	Size    int64
	closers []io.Closer
}

func (i *Input) Close() error {
	var firstErr error
	for _, closer := range i.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Open resolves a dump location into a readable stream. Supported forms:
// "-" for stdin, "s3://bucket/key" for an object store, anything else is
// a local file path. A ".gz" suffix enables transparent decompression.
func Open(ctx context.Context, uri string, awsConfig *AWSConfig) (*Input, error) {
	switch {
	case uri == "-":
		return &Input{Reader: os.Stdin, Name: "stdin"}, nil
	case strings.HasPrefix(uri, s3Scheme):
		return openS3(ctx, uri, awsConfig)
	default:
		return openFile(uri)
	}
}

func openFile(path string) (*Input, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %s", err)
	}

	input := &Input{Reader: file, Name: path, closers: []io.Closer{file}}
	if info, err := file.Stat(); err == nil {
		input.Size = info.Size()
	}
	if err := decompress(input); err != nil {
		file.Close()
		return nil, err
	}
	return input, nil
}

func openS3(ctx context.Context, uri string, awsConfig *AWSConfig) (*Input, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if awsConfig == nil {
		awsConfig = &AWSConfig{}
	}
	if err := awsConfig.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate aws config: %s", err)
	}

	configOpts := []func(*config.LoadOptions) error{}
	if awsConfig.Region != "" {
		configOpts = append(configOpts, config.WithRegion(awsConfig.Region))
	}
	// Static credentials when provided, otherwise the default chain.
	if awsConfig.AccessKeyID != "" && awsConfig.SecretAccessKey != "" {
		logger.Info("Using static credentials for S3 authentication")
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				awsConfig.AccessKeyID,
				awsConfig.SecretAccessKey,
				"",
			),
		))
	} else {
		logger.Info("Using default credential chain (IAM role, instance profile, env vars, or shared config)")
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %s", err)
	}

	var client *s3.Client
	if awsConfig.Endpoint != "" {
		logger.Infof("Connecting to S3-compatible endpoint: %s", awsConfig.Endpoint)
		client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
			o.UsePathStyle = true // Required for MinIO and some S3-compatible services
		})
	} else {
		client = s3.NewFromConfig(cfg)
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %s", err)
	}

	input := &Input{Reader: result.Body, Name: uri, closers: []io.Closer{result.Body}}
	if result.ContentLength != nil {
		input.Size = *result.ContentLength
	}
	if err := decompress(input); err != nil {
		result.Body.Close()
		return nil, err
	}
	return input, nil
}

func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, s3Scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 uri %q: expected s3://bucket/key", uri)
	}
	return parts[0], parts[1], nil
}

// decompress wraps the input reader when the name carries a gzip extension.
func decompress(input *Input) error {
	if !strings.HasSuffix(strings.ToLower(input.Name), ".gz") {
		return nil
	}
	gzipReader, err := gzip.NewReader(input.Reader)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %s", err)
	}
	logger.Debugf("Using gzip decompression for input: %s", input.Name)
	input.Reader = gzipReader
	input.closers = append([]io.Closer{gzipReader}, input.closers...)
	return nil
}
