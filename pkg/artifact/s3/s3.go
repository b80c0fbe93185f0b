// Package s3 is the object-storage backend of the artifact store.
//
// Runs live under <prefix>/runs/<runId>/ in one bucket. The append-only
// guarantee is kept by checking object existence before each stage put;
// a run is single-writer by construction, so the check does not race.
package s3

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tabweave/tabweave/pkg/artifact"
	kerr "github.com/tabweave/tabweave/pkg/domain/errors"
)

const runRecordName = "run.json"

// API is the subset of the S3 client this store sends.
//
// This is extracted from *s3.Client; when you need more operations, add.
type API interface {
	GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
}

type store struct {
	client API
	bucket string
	prefix string
}

var _ artifact.Store = &store{}

// New opens an artifact store on bucket, with credentials from the
// default AWS credential chain.
func New(ctx context.Context, bucket string, prefix string) (artifact.Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return Wrap(awss3.NewFromConfig(cfg), bucket, prefix), nil
}

// Wrap builds a store over an existing client. Useful for tests.
func Wrap(client API, bucket string, prefix string) artifact.Store {
	return &store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *store) key(runId string, parts ...string) string {
	elems := []string{"runs", runId}
	if s.prefix != "" {
		elems = append([]string{s.prefix}, elems...)
	}
	return strings.Join(append(elems, parts...), "/")
}

func (s *store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}

func (s *store) Write(ctx context.Context, runId string, stage string, r io.Reader) (string, error) {
	key := s.key(runId, stage)

	if found, err := s.exists(ctx, key); err != nil {
		return "", err
	} else if found {
		return "", kerr.Of(kerr.ErrStageConflict, "%s of run %s", stage, runId)
	}

	if _, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}); err != nil {
		return "", err
	}
	return "s3://" + s.bucket + "/" + key, nil
}

func (s *store) Read(ctx context.Context, runId string, stage string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runId, stage)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, kerr.Of(kerr.ErrArtifactNotFound, "%s of run %s", stage, runId)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *store) PutRecord(ctx context.Context, runId string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runId, runRecordName)),
		Body:   r,
	})
	return err
}

func (s *store) GetRecord(ctx context.Context, runId string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(runId, runRecordName)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, kerr.Of(kerr.ErrMissing, "run %s", runId)
		}
		return nil, err
	}
	return out.Body, nil
}

func (s *store) Runs(ctx context.Context) ([]string, error) {
	base := "runs/"
	if s.prefix != "" {
		base = s.prefix + "/runs/"
	}

	runIds := []string{}
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(base),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}

		for _, cp := range out.CommonPrefixes {
			runId := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), base), "/")
			if runId != "" {
				runIds = append(runIds, runId)
			}
		}

		if out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	sort.Strings(runIds)
	return runIds, nil
}
