// Package scheduler runs transfer jobs through a worker pool: resolve the
// source, stream it into memory (or open the local file), then hand the
// stream to the upload dispatcher. Job status is reported through the
// output manager.
package scheduler

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tuxkal/drainpipe/internal/creds"
	fetchhttp "github.com/tuxkal/drainpipe/internal/fetch/http"
	"github.com/tuxkal/drainpipe/internal/fetch/local"
	"github.com/tuxkal/drainpipe/internal/fetch/s3"
	"github.com/tuxkal/drainpipe/internal/output"
	"github.com/tuxkal/drainpipe/internal/progress"
	"github.com/tuxkal/drainpipe/internal/upload"
	"github.com/tuxkal/drainpipe/internal/utils"
)

type TransferJob struct {
	ID               string
	Source           string
	SourceType       string // "http", "s3" or "local"
	Name             string // optional filename override
	Profile          string // AWS profile for s3 sources
	HTTPClientConfig utils.HTTPClientConfig
}

type Config struct {
	Workers        int
	Credentials    creds.Credentials
	RetryPolicy    fetchhttp.RetryPolicy
	UploadEndpoint string    // defaults to the pixeldrain API
	Out            io.Writer // display writer, defaults to stdout
}

func DetermineSourceType(source string) string {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return "http"
	case strings.HasPrefix(source, "s3://"):
		return "s3"
	default:
		return "local"
	}
}

func Run(jobs []TransferJob, cfg Config) error {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.UploadEndpoint == "" {
		cfg.UploadEndpoint = upload.DefaultEndpoint
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.RetryPolicy == (fetchhttp.RetryPolicy{}) {
		cfg.RetryPolicy = fetchhttp.DefaultRetryPolicy()
	}

	mgr := output.NewManager(cfg.Out)
	mgr.StartDisplay()

	jobCh := make(chan TransferJob, len(jobs))
	for _, job := range jobs {
		jobCh <- job
	}
	close(jobCh)

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processJobs(jobCh, mgr, cfg)
		}()
	}
	wg.Wait()
	mgr.StopDisplay()

	if errs := mgr.Errors(); len(errs) > 0 {
		return fmt.Errorf("%d of %d transfers failed", len(errs), len(jobs))
	}
	return nil
}

func processJobs(jobCh <-chan TransferJob, mgr *output.Manager, cfg Config) {
	for job := range jobCh {
		id := mgr.Register(job.Source)
		mgr.SetMessage(id, fmt.Sprintf("Fetching %s", job.Source))

		name, reader, cleanup, err := fetchSource(job, cfg, mgr, id)
		if err != nil {
			mgr.ReportError(id, err)
			continue
		}
		if job.Name != "" {
			name = job.Name
		}

		mgr.SetMessage(id, fmt.Sprintf("Uploading %s", name))
		client := utils.NewHTTPClient(job.HTTPClientConfig)
		dispatcher := upload.NewDispatcher(client, cfg.UploadEndpoint, utils.GetLogger("upload"))
		res, err := dispatcher.Upload(reader, name, cfg.Credentials)
		cleanup()
		if err != nil {
			mgr.ReportError(id, err)
			continue
		}
		mgr.Complete(id, fmt.Sprintf("%s %s %s", name, output.StyleSymbols["arrow"], upload.PageURL(res.ID)))
	}
}

// fetchSource resolves a job into a filename and a single-pass byte stream.
// The returned cleanup releases any held resource (a local file handle).
func fetchSource(job TransferJob, cfg Config, mgr *output.Manager, id int) (string, io.Reader, func(), error) {
	noop := func() {}
	switch job.SourceType {
	case "http":
		client := utils.NewHTTPClient(job.HTTPClientConfig)
		tracker := progress.NewDisplay(mgr, id)
		engine := fetchhttp.NewEngine(client, cfg.RetryPolicy, tracker, utils.GetLogger("fetch/http"))
		name, buf, err := engine.Download(job.Source)
		return name, buf, noop, err
	case "s3":
		tracker := progress.NewDisplay(mgr, id)
		fetcher := s3.NewFetcher(job.Profile, tracker, utils.GetLogger("fetch/s3"))
		name, buf, err := fetcher.Fetch(job.Source)
		return name, buf, noop, err
	case "local":
		name, f, _, err := local.Open(job.Source)
		if err != nil {
			return "", nil, noop, err
		}
		return name, f, func() { f.Close() }, nil
	default:
		return "", nil, noop, fmt.Errorf("unknown source type: %s", job.SourceType)
	}
}
