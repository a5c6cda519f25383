// Package export writes datasets as single-sheet XLSX workbooks and optionally
// uploads them to S3.
package export

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/resilience"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader is the subset of *s3.Client used for uploads.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures an Exporter.
type Options struct {
	Dir         string
	Bucket      string
	Prefix      string
	Concurrency int
	Retry       resilience.RetryConfig
}

// Result describes one exported dataset.
type Result struct {
	Dataset string
	Path    string
	Key     string // S3 key, empty when not uploaded
	Rows    int
}

// Exporter writes datasets to Dir and uploads them when a bucket is configured.
type Exporter struct {
	opts     Options
	uploader Uploader
}

// New returns an Exporter. uploader may be nil when Bucket is empty.
func New(opts Options, uploader Uploader) (*Exporter, error) {
	if opts.Dir == "" {
		return nil, eris.New("export: output dir is required")
	}
	if opts.Bucket != "" && uploader == nil {
		return nil, eris.New("export: s3 bucket set without an uploader")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = resilience.DefaultRetryConfig()
		opts.Retry.OnRetry = resilience.RetryLogger("export", "s3 upload")
	}
	return &Exporter{opts: opts, uploader: uploader}, nil
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, region, profile string) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "export: load aws config")
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Export writes every dataset concurrently. Results keep the input order.
func (e *Exporter) Export(ctx context.Context, datasets ...Dataset) ([]Result, error) {
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create %s", e.opts.Dir)
	}

	results := make([]Result, len(datasets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, ds := range datasets {
		g.Go(func() error {
			res, err := e.exportOne(gctx, ds)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Exporter) exportOne(ctx context.Context, ds Dataset) (Result, error) {
	start := time.Now()
	res := Result{Dataset: ds.Name, Path: filepath.Join(e.opts.Dir, ds.Name+".xlsx"), Rows: len(ds.Rows)}
	if err := fetcher.WriteXLSX(res.Path, ds.Name, ds.Header, ds.strings()); err != nil {
		return Result{}, eris.Wrapf(err, "export: write %s", ds.Name)
	}

	if e.opts.Bucket != "" {
		res.Key = path.Join(e.opts.Prefix, ds.Name+".xlsx")
		if err := e.upload(ctx, res.Path, res.Key); err != nil {
			return Result{}, err
		}
	}

	zap.L().Info("export: dataset written",
		zap.String("dataset", ds.Name),
		zap.String("path", res.Path),
		zap.String("s3_key", res.Key),
		zap.Int("rows", res.Rows),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (e *Exporter) upload(ctx context.Context, file, key string) error {
	return resilience.Do(ctx, e.opts.Retry, func(ctx context.Context) error {
		f, err := os.Open(file)
		if err != nil {
			return eris.Wrapf(err, "export: open %s", file)
		}
		defer f.Close() //nolint:errcheck

		_, err = e.uploader.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(e.opts.Bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(xlsxContentType),
		})
		return eris.Wrapf(err, "export: upload s3://%s/%s", e.opts.Bucket, key)
	})
}
