// Package s3 fetches s3://bucket/key sources into the transfer buffer with
// the same block-streaming and progress contract as the HTTP engine.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/tuxkal/drainpipe/internal/buffer"
	"github.com/tuxkal/drainpipe/internal/progress"
	"github.com/tuxkal/drainpipe/internal/utils"
)

type Fetcher struct {
	profile string
	tracker progress.Tracker
	log     zerolog.Logger
}

func NewFetcher(profile string, tracker progress.Tracker, logger zerolog.Logger) *Fetcher {
	if tracker == nil {
		tracker = progress.Nop{}
	}
	return &Fetcher{profile: profile, tracker: tracker, log: logger}
}

// ParseURL splits s3://bucket/key into its parts. Prefixes (trailing slash
// or empty key) are rejected: only single objects can be uploaded.
func ParseURL(source string) (string, string, error) {
	source = strings.TrimPrefix(source, "s3://")
	parts := strings.SplitN(source, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 source, expected s3://BUCKET/KEY")
	}
	if strings.HasSuffix(parts[1], "/") {
		return "", "", fmt.Errorf("S3 source must be a single object, not a prefix: %s", parts[1])
	}
	return parts[0], parts[1], nil
}

func getClient(profile string) (*awss3.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithSharedConfigProfile(profile),
		config.WithRetryMode("adaptive"),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %v", err)
	}
	return awss3.NewFromConfig(cfg), nil
}

// Fetch downloads the object into memory and returns the filename (the key
// base) and the buffer with its cursor reset.
func (f *Fetcher) Fetch(source string) (string, *buffer.Buffer, error) {
	bucket, key, err := ParseURL(source)
	if err != nil {
		return "", nil, err
	}
	client, err := getClient(f.profile)
	if err != nil {
		return "", nil, err
	}

	head, err := client.HeadObject(context.Background(), &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("error accessing s3://%s/%s: %v", bucket, key, err)
	}
	var size int64
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	filename := path.Base(key)
	f.log.Info().Str("op", "fetch/s3").Int64("size", size).Msgf("starting download of s3://%s/%s", bucket, key)

	result, err := client.GetObject(context.Background(), &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", nil, fmt.Errorf("error getting object: %v", err)
	}
	defer result.Body.Close()

	buf := buffer.New()
	f.tracker.Begin(size, filename)
	defer f.tracker.End()
	block := make([]byte, utils.BlockSize)
	for {
		n, err := result.Body.Read(block)
		if n > 0 {
			if _, werr := buf.Write(block[:n]); werr != nil {
				return "", nil, fmt.Errorf("error writing to transfer buffer: %v", werr)
			}
			f.tracker.Advance(int64(n))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("error reading object: %v", err)
		}
	}
	buf.SeekStart()
	return filename, buf, nil
}
