package rtorrent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"rtgrab/internal/logger"

	"go.uber.org/zap"
)

const (
	OpAddURL      = "ADD_URL"
	OpAddPayload  = "ADD_PAYLOAD"
	OpRemove      = "REMOVE"
	OpErase       = "ERASE"
	OpPause       = "PAUSE"
	OpResume      = "RESUME"
	OpSetPriority = "SET_PRIORITY"
)

// Recorder receives the outcome of every mutating operation.
type Recorder interface {
	Record(operation, target string, err error)
}

type AddOptions struct {
	Directory string
	Label     string
	// Source names the payload in history while its hash is unknown,
	// typically the file it was read from.
	Source string
}

// Control issues mutating calls. Mutations are serialized so that the
// "newly added job" inference never races with another add from this client.
type Control struct {
	mu       sync.Mutex
	invoker  Invoker
	repo     *Repository
	fetcher  Fetcher
	defaults AddOptions
	recorder Recorder
}

// NewControl builds a Control. defaults are the directory and label applied
// by AddFromURL.
func NewControl(invoker Invoker, repo *Repository, fetcher Fetcher, defaults AddOptions) *Control {
	return &Control{
		invoker:  invoker,
		repo:     repo,
		fetcher:  fetcher,
		defaults: defaults,
	}
}

func (c *Control) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

func (c *Control) finish(op, target string, err error) {
	if c.recorder != nil {
		c.recorder.Record(op, target, err)
	}
	if err != nil {
		logger.Log.Error("operation failed",
			zap.String("op", op),
			zap.String("target", target),
			zap.Error(err))
	}
}

// AddFromURL downloads a payload and submits it with a single load-and-start
// call that also sets the default directory and label. It returns the hash of
// the job that appeared, or "" when the daemon listed nothing afterwards.
// If the listing taken before the load fails, the load still goes ahead and
// the last listed entry is taken as the new job.
func (c *Control) AddFromURL(ctx context.Context, rawURL string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.addFromURL(ctx, rawURL)
	c.finish(OpAddURL, rawURL, err)
	return hash, err
}

func (c *Control) addFromURL(ctx context.Context, rawURL string) (string, error) {
	logger.Log.Info("downloading payload", zap.String("url", rawURL))

	data, err := c.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}

	logger.Log.Debug("payload downloaded",
		zap.String("url", rawURL),
		zap.Int("size", len(data)))

	before := c.trySnapshot(ctx)

	args := []any{"", base64.StdEncoding.EncodeToString(data)}
	if c.defaults.Directory != "" {
		args = append(args, "d.directory.set="+c.defaults.Directory)
	}
	if c.defaults.Label != "" {
		args = append(args, "d.custom1.set="+c.defaults.Label)
	}

	if _, err := c.invoker.Invoke(ctx, MethodLoadRawStart, args...); err != nil {
		return "", err
	}

	job, ok, err := c.resolveAdded(ctx, before)
	if err != nil {
		return "", fmt.Errorf("failed to confirm add: %w", err)
	}
	if !ok {
		logger.Log.Warn("daemon listed no jobs after add", zap.String("url", rawURL))
		return "", nil
	}

	logger.Log.Info("job added",
		zap.String("hash", job.Hash),
		zap.String("name", job.Name))

	return job.Hash, nil
}

// AddFromPayload loads raw payload bytes without starting them. When a
// directory or label is requested the new job is located and configured with
// follow-up calls, and its hash is returned; otherwise the hash is "".
func (c *Control) AddFromPayload(ctx context.Context, data []byte, opts AddOptions) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hash, err := c.addFromPayload(ctx, data, opts)
	c.finish(OpAddPayload, payloadTarget(hash, data, opts), err)
	return hash, err
}

func payloadTarget(hash string, data []byte, opts AddOptions) string {
	switch {
	case hash != "":
		return hash
	case opts.Source != "":
		return opts.Source
	default:
		return fmt.Sprintf("payload (%d bytes)", len(data))
	}
}

func (c *Control) addFromPayload(ctx context.Context, data []byte, opts AddOptions) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty payload")
	}

	configure := opts.Directory != "" || opts.Label != ""

	var before map[string]struct{}
	if configure {
		before = c.trySnapshot(ctx)
	}

	if _, err := c.invoker.Invoke(ctx, MethodLoadRaw, "", base64.StdEncoding.EncodeToString(data)); err != nil {
		return "", err
	}

	if !configure {
		return "", nil
	}

	job, ok, err := c.resolveAdded(ctx, before)
	if err != nil {
		return "", fmt.Errorf("failed to locate added job: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("failed to locate added job: %w", ErrNotFound)
	}

	if opts.Directory != "" {
		if _, err := c.invoker.Invoke(ctx, MethodSetDirectory, "", job.Hash, opts.Directory); err != nil {
			return job.Hash, err
		}
	}

	if opts.Label != "" {
		if _, err := c.invoker.Invoke(ctx, MethodSetLabel, "", job.Hash, opts.Label); err != nil {
			return job.Hash, err
		}
	}

	return job.Hash, nil
}

func (c *Control) snapshot(ctx context.Context) (map[string]struct{}, error) {
	jobs, err := c.repo.latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot jobs: %w", err)
	}

	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		seen[job.Hash] = struct{}{}
	}
	return seen, nil
}

// trySnapshot returns nil when the listing fails; resolveAdded then falls
// back to the last entry.
func (c *Control) trySnapshot(ctx context.Context) map[string]struct{} {
	before, err := c.snapshot(ctx)
	if err != nil {
		logger.Log.Warn("proceeding without a job snapshot", zap.Error(err))
		return nil
	}
	return before
}

// resolveAdded picks the first listed job missing from before. When every
// hash was already known (a duplicate load) or there is no snapshot it falls
// back to the last entry.
func (c *Control) resolveAdded(ctx context.Context, before map[string]struct{}) (Job, bool, error) {
	jobs, err := c.repo.latest(ctx)
	if err != nil {
		return Job{}, false, err
	}
	if len(jobs) == 0 {
		return Job{}, false, nil
	}

	if before != nil {
		for _, job := range jobs {
			if _, ok := before[job.Hash]; !ok {
				return job, true, nil
			}
		}
	}

	last := jobs[len(jobs)-1]
	logger.Log.Warn("no new job listed, assuming the last entry",
		zap.String("hash", last.Hash))

	return last, true, nil
}

// Remove erases the job and its data when eraseData is set. Otherwise it
// stops and closes the job, keeping data on disk. A failed close after a
// successful stop is not rolled back.
func (c *Control) Remove(ctx context.Context, hash string, eraseData bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if eraseData {
		_, err := c.invoker.Invoke(ctx, MethodErase, hash)
		c.finish(OpErase, hash, err)
		return err
	}

	err := c.softRemove(ctx, hash)
	c.finish(OpRemove, hash, err)
	return err
}

func (c *Control) softRemove(ctx context.Context, hash string) error {
	if _, err := c.invoker.Invoke(ctx, MethodStop, hash); err != nil {
		return err
	}

	if _, err := c.invoker.Invoke(ctx, MethodClose, hash); err != nil {
		return fmt.Errorf("job stopped but not closed: %w", err)
	}

	return nil
}

func (c *Control) Pause(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.invoker.Invoke(ctx, MethodStop, hash)
	c.finish(OpPause, hash, err)
	return err
}

func (c *Control) Resume(ctx context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.invoker.Invoke(ctx, MethodStart, hash)
	c.finish(OpResume, hash, err)
	return err
}

// SetPriority passes level through unchanged; range checks belong to the caller.
func (c *Control) SetPriority(ctx context.Context, hash string, level Priority) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.invoker.Invoke(ctx, MethodSetPriority, "", hash, int(level))
	c.finish(OpSetPriority, hash, err)
	return err
}

// GetDownloadRate returns bytes per second, or 0 with the error on failure.
func (c *Control) GetDownloadRate(ctx context.Context, hash string) (int64, error) {
	raw, err := c.invoker.Invoke(ctx, MethodDownRate, hash)
	if err != nil {
		logger.Log.Error("failed to get download rate",
			zap.String("hash", hash),
			zap.Error(err))
		return 0, err
	}

	return asInt64(raw), nil
}
