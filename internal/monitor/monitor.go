// Package monitor queries a set of servers once or keeps polling them,
// printing reports and capturing datagrams that fail to decode.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/bfquery/internal/config"
	"github.com/woozymasta/bfquery/internal/game"
	"github.com/woozymasta/bfquery/internal/models"
	"github.com/woozymasta/bfquery/internal/render"
	"github.com/woozymasta/bfquery/internal/serverinfo"
	"golang.org/x/time/rate"
)

// Target is a server to query, either by GUID or by a known endpoint.
type Target struct {
	Direct   *models.Endpoint
	GUID     string
	Platform string
}

func (t Target) String() string {
	if t.Direct != nil {
		return t.Direct.Address()
	}
	return t.GUID
}

// Resolver maps a GUID to its endpoint.
type Resolver interface {
	Resolve(ctx context.Context, guid, platform string) (models.Endpoint, error)
}

// Runner drives the queries.
type Runner struct {
	resolver Resolver
	capture  *Capturer
	out      io.Writer
	query    config.Query
	opts     config.Monitor
	outMu    sync.Mutex
}

// New returns a runner printing to out.
func New(resolver Resolver, query config.Query, opts config.Monitor, out io.Writer) *Runner {
	return &Runner{
		resolver: resolver,
		capture:  NewCapturer(opts.CaptureDir, opts.CaptureAll),
		out:      out,
		query:    query,
		opts:     opts,
	}
}

// Run queries every target once, or polls them until ctx is done in watch mode.
func (r *Runner) Run(ctx context.Context, targets []Target) error {
	if r.opts.Watch {
		r.watch(ctx, targets)
		return nil
	}

	return r.once(ctx, targets)
}

type result struct {
	err    error
	report models.Report
}

// once queries all targets through a bounded worker pool and prints the
// reports in target order.
func (r *Runner) once(ctx context.Context, targets []Target) error {
	results := make([]result, len(targets))
	jobs := make(chan int, len(targets))
	var wg sync.WaitGroup

	workers := r.opts.Workers
	if workers > len(targets) {
		workers = len(targets)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				report, err := r.queryOnce(ctx, targets[idx])
				results[idx] = result{report: report, err: err}
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for i, res := range results {
		if res.err != nil {
			failed++
			log.Error().Err(res.err).Str("target", targets[i].String()).Msg("Server query failed")
			continue
		}
		if err := r.print(res.report, false); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d servers failed", failed, len(targets))
	}

	return nil
}

func (r *Runner) queryOnce(ctx context.Context, t Target) (models.Report, error) {
	ep, err := r.endpoint(ctx, t)
	if err != nil {
		return models.Report{}, err
	}

	info, raw, err := game.QueryServer(ctx, ep.Address(), ep.GameID, r.query)
	r.save(ep, raw, err)
	if err != nil {
		return models.Report{}, err
	}

	return models.Report{Endpoint: ep, Info: info, QueriedAt: time.Now()}, nil
}

// watch polls every target on its own socket until ctx is done.
func (r *Runner) watch(ctx context.Context, targets []Target) {
	var wg sync.WaitGroup

	for _, t := range targets {
		wg.Add(1)
		go func(t Target) {
			defer wg.Done()
			r.watchTarget(ctx, t)
		}(t)
	}

	wg.Wait()
}

func (r *Runner) watchTarget(ctx context.Context, t Target) {
	logCtx := log.With().Str("target", t.String()).Logger()
	limiter := rate.NewLimiter(rate.Every(r.opts.Interval), 1)

	var (
		ep     models.Endpoint
		client *game.Client
	)

	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		if client == nil {
			var err error
			if ep, err = r.endpoint(ctx, t); err != nil {
				logCtx.Warn().Err(err).Msg("Failed to resolve server")
				continue
			}

			tr, err := game.Dial(ep.Address(), r.query.Timeout, r.query.Backoff)
			if err != nil {
				logCtx.Warn().Err(err).Msg("Failed to open query socket")
				continue
			}
			defer func() { _ = tr.Close() }()

			client = game.NewClient(tr)
			logCtx.Info().Str("address", ep.Address()).Uint64("game_id", ep.GameID).Msg("Watching server")
		}

		raw, err := client.QueryRaw(ctx, ep.GameID)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logCtx.Warn().Err(err).Msg("Server query failed")
			continue
		}

		info, err := serverinfo.Decode(raw)
		r.save(ep, raw, err)
		if err != nil {
			logCtx.Error().Err(err).Int("bytes", len(raw)).Msg("Failed to decode server info")
			continue
		}

		report := models.Report{Endpoint: ep, Info: info, QueriedAt: time.Now()}
		if err := r.print(report, true); err != nil {
			logCtx.Error().Err(err).Msg("Failed to write report")
		}
	}
}

func (r *Runner) endpoint(ctx context.Context, t Target) (models.Endpoint, error) {
	if t.Direct != nil {
		return *t.Direct, nil
	}
	return r.resolver.Resolve(ctx, t.GUID, t.Platform)
}

// save captures raw when a decode failed or when every datagram is kept.
func (r *Runner) save(ep models.Endpoint, raw []byte, err error) {
	if raw == nil {
		return
	}

	failed := errors.Is(err, serverinfo.ErrMalformed)
	path, saveErr := r.capture.Save(raw, failed)

	ev := log.Debug()
	if saveErr != nil {
		ev = log.Error().Err(saveErr)
	} else if path == "" {
		return
	}

	ev.Str("address", ep.Address()).
		Str("path", path).
		Bool("failed", failed).
		Msg("Datagram captured")
}

func (r *Runner) print(report models.Report, summary bool) error {
	r.outMu.Lock()
	defer r.outMu.Unlock()

	switch {
	case r.opts.Format == "json":
		return render.JSON(r.out, report)
	case summary:
		_, err := fmt.Fprintln(r.out, render.Summary(report))
		return err
	default:
		return render.Text(r.out, report)
	}
}
