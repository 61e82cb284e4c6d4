package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"chunkenc/internal/fileutil"
	"chunkenc/internal/job"
	"chunkenc/internal/logging"
	"chunkenc/internal/segment"
	"chunkenc/internal/services"
)

const stageName = "encode"

var errNotRecorded = errors.New("not recorded as complete")

// Pool encodes segments with a fixed number of workers.
type Pool struct {
	Encoder     *Encoder
	Concurrency int
	Logger      *slog.Logger
}

// Result summarizes one run of the pool.
type Result struct {
	Total    int
	Encoded  int
	Skipped  int
	Speed    SpeedChoice
	Segments []segment.Segment
	Elapsed  time.Duration
}

type outcome struct {
	seg      segment.Segment
	err      error
	duration time.Duration
}

// Run encodes every segment not yet recorded as complete in j.Tracker. Each
// success is persisted before the next result is handled. When any segment
// fails the returned error is a *services.SegmentFailures naming all of
// them; successful segments stay recorded either way.
func (p *Pool) Run(ctx context.Context, j *job.Job, segments []segment.Segment) (Result, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(p.Logger, "encoder"))
	start := time.Now()

	choice := p.Encoder.Settings.SelectSpeed(j.Info.Video.Pixels())
	decision := append(logging.DecisionAttrs("speed_preset", choice.Tier, choice.Reason),
		logging.Int("speed", choice.Speed),
		logging.Int("width", j.Info.Video.Width),
		logging.Int("height", j.Info.Video.Height),
	)
	logger.Info("encoder speed selected", logging.Args(decision...)...)

	res := Result{Total: len(segments), Speed: choice, Segments: slices.Clone(segments)}
	position := make(map[string]int, len(segments))
	var pending []segment.Segment
	for i := range res.Segments {
		seg := &res.Segments[i]
		position[seg.ID] = i
		if j.Tracker.IsComplete(seg.ID) {
			seg.Status = segment.StatusDone
			res.Skipped++
			continue
		}
		seg.Status = segment.StatusEncoding
		pending = append(pending, *seg)
	}

	if len(pending) == 0 {
		logger.Info("all segments already encoded", logging.Int("segments", res.Total))
		res.Elapsed = time.Since(start)
		return res, nil
	}
	if res.Skipped > 0 {
		logger.Info("resuming encode",
			logging.Int("completed", res.Skipped),
			logging.Int("remaining", len(pending)),
		)
	}

	workers := min(max(p.Concurrency, 1), len(pending))
	tasks := make(chan segment.Segment)
	results := make(chan outcome, len(pending))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seg := range tasks {
				began := time.Now()
				err := p.Encoder.EncodeSegment(ctx, seg, j.Layout.EncodeTmp, choice.Speed)
				results <- outcome{seg: seg, err: err, duration: time.Since(began)}
			}
		}()
	}

	go func() {
		defer func() {
			close(tasks)
			wg.Wait()
			close(results)
		}()
		for _, seg := range pending {
			select {
			case tasks <- seg:
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("encoding segments",
		logging.Int("pending", len(pending)),
		logging.Int("workers", workers),
	)

	sampler := logging.NewProgressSampler(10)
	var failures []services.SegmentFailure
	for out := range results {
		seg := &res.Segments[position[out.seg.ID]]
		err := out.err
		if err == nil {
			if markErr := j.Tracker.MarkSegment(out.seg.ID); markErr != nil {
				err = fmt.Errorf("record completion: %w", markErr)
			}
		}
		if err != nil {
			seg.Status = segment.StatusPending
			failures = append(failures, services.SegmentFailure{SegmentID: out.seg.ID, Err: err})
			logger.Warn("segment encode failed",
				logging.String(logging.FieldSegmentID, out.seg.ID),
				logging.String(logging.FieldEventType, "segment_failed"),
				logging.String(logging.FieldErrorHint, "re-run to retry only the failed segments"),
				logging.Error(err),
			)
			continue
		}
		seg.Status = segment.StatusDone
		res.Encoded++
		logger.Debug("segment encoded",
			logging.String(logging.FieldSegmentID, out.seg.ID),
			logging.Duration("duration", out.duration),
		)
		done := res.Skipped + res.Encoded
		percent := float64(done) / float64(res.Total) * 100
		if sampler.ShouldLog(percent, stageName) {
			logger.Info("encode progress",
				logging.Int("completed", done),
				logging.Int("total", res.Total),
				logging.Float64("percent", percent),
			)
		}
	}
	res.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return res, services.Wrap(err, stageName, "encode segments", "interrupted", nil)
	}
	if len(failures) > 0 {
		slices.SortFunc(failures, func(a, b services.SegmentFailure) int {
			return position[a.SegmentID] - position[b.SegmentID]
		})
		return res, &services.SegmentFailures{Total: res.Total, Failures: failures}
	}
	return res, nil
}

// Verify checks that every segment is recorded complete and has a readable,
// non-empty encoded file.
func Verify(j *job.Job, segments []segment.Segment) error {
	var failures []services.SegmentFailure
	for _, seg := range segments {
		if !j.Tracker.IsComplete(seg.ID) {
			failures = append(failures, services.SegmentFailure{SegmentID: seg.ID, Err: errNotRecorded})
			continue
		}
		if err := fileutil.NonEmptyFile(seg.EncodedPath); err != nil {
			failures = append(failures, services.SegmentFailure{SegmentID: seg.ID, Err: err})
		}
	}
	if len(failures) > 0 {
		return &services.SegmentFailures{Total: len(segments), Failures: failures}
	}
	return nil
}
