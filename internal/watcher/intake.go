package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rtgrab/internal/logger"
	"rtgrab/internal/model"
	"rtgrab/internal/pipeline"
	"rtgrab/internal/rtorrent"

	"go.uber.org/zap"
)

const (
	PayloadExt   = ".torrent"
	AddedSuffix  = ".added"
	FailedSuffix = ".failed"
)

type PayloadAdder interface {
	AddFromPayload(ctx context.Context, data []byte, opts rtorrent.AddOptions) (string, error)
}

// Intake submits payload files dropped into a directory and renames each
// one so it is never submitted twice.
type Intake struct {
	adder      PayloadAdder
	opts       rtorrent.AddOptions
	ignoreList []string
	settle     time.Duration
}

func NewIntake(adder PayloadAdder, opts rtorrent.AddOptions, ignoreList []string, settle time.Duration) *Intake {
	return &Intake{
		adder:      adder,
		opts:       opts,
		ignoreList: ignoreList,
		settle:     settle,
	}
}

// Run consumes events until the channel closes, emitting one result per
// submitted file.
func (in *Intake) Run(ctx context.Context, events <-chan model.FileEvent) <-chan model.IntakeResult {
	settled := pipeline.Debounce(events, in.settle)
	filtered := pipeline.Filter(settled, in.ignoreList, PayloadExt)

	outCh := make(chan model.IntakeResult, cap(events))
	go func() {
		defer close(outCh)
		for event := range filtered {
			outCh <- in.Submit(ctx, event)
		}
	}()

	return outCh
}

// Backlog returns events for payload files already present in dir.
func (in *Intake) Backlog(dir string) ([]model.FileEvent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read watch dir: %w", err)
	}

	var events []model.FileEvent
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), PayloadExt) {
			continue
		}
		events = append(events, model.FileEvent{
			Type:      model.EventCreate,
			Path:      filepath.Join(dir, e.Name()),
			Timestamp: time.Now(),
		})
	}

	return events, nil
}

func (in *Intake) Submit(ctx context.Context, event model.FileEvent) model.IntakeResult {
	result := model.IntakeResult{Event: event}

	data, err := os.ReadFile(event.Path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Log.Debug("payload vanished before submit",
				zap.String("path", event.Path))
		}
		result.Err = fmt.Errorf("failed to read payload: %w", err)
		return result
	}

	opts := in.opts
	opts.Source = filepath.Base(event.Path)
	result.Hash, result.Err = in.adder.AddFromPayload(ctx, data, opts)

	suffix := AddedSuffix
	if result.Err != nil {
		suffix = FailedSuffix
	}
	if err := os.Rename(event.Path, event.Path+suffix); err != nil {
		logger.Log.Warn("failed to rename submitted payload",
			zap.String("path", event.Path),
			zap.Error(err))
	}

	if result.Err == nil {
		logger.Log.Info("payload submitted",
			zap.String("path", event.Path),
			zap.String("hash", result.Hash))
	}

	return result
}
