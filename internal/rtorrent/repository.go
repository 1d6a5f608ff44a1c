package rtorrent

import (
	"context"

	"rtgrab/internal/logger"

	"go.uber.org/zap"
)

const DefaultView = "main"

// Repository materializes the daemon's job set. Nothing is cached: every
// call is a fresh batched query.
type Repository struct {
	invoker Invoker
	view    string
}

func NewRepository(invoker Invoker, view string) *Repository {
	if view == "" {
		view = DefaultView
	}

	return &Repository{
		invoker: invoker,
		view:    view,
	}
}

func (r *Repository) query(ctx context.Context, s schema) ([]Job, error) {
	raw, err := r.invoker.Invoke(ctx, MethodMulticall, s.args(r.view)...)
	if err != nil {
		return nil, err
	}

	rows, err := asRows(raw)
	if err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(rows))
	for _, row := range rows {
		job, err := s.decode(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// ListJobs returns the current jobs. On failure it returns an empty slice
// together with the error, so an empty result alone is not proof of an
// empty daemon.
func (r *Repository) ListJobs(ctx context.Context) ([]Job, error) {
	jobs, err := r.query(ctx, listSchema)
	if err != nil {
		logger.Log.Error("failed to list jobs",
			zap.String("view", r.view),
			zap.Error(err))
		return []Job{}, err
	}

	return jobs, nil
}

// GetJob scans a full listing for hash. A missing job is reported with
// ok=false and a nil error.
func (r *Repository) GetJob(ctx context.Context, hash string) (Job, bool, error) {
	jobs, err := r.query(ctx, detailSchema)
	if err != nil {
		logger.Log.Error("failed to get job details",
			zap.String("hash", hash),
			zap.Error(err))
		return Job{}, false, err
	}

	for _, job := range jobs {
		if job.Hash == hash {
			return job, true, nil
		}
	}

	return Job{}, false, nil
}

func (r *Repository) GetVersion(ctx context.Context) (string, error) {
	raw, err := r.invoker.Invoke(ctx, MethodVersion)
	if err != nil {
		logger.Log.Warn("failed to get daemon version", zap.Error(err))
		return "", err
	}

	return asString(raw), nil
}

func (r *Repository) latest(ctx context.Context) ([]Job, error) {
	return r.query(ctx, confirmSchema)
}
