// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package janitor periodically removes uploaded images that nothing
// references any more: blobs left behind by abandoned product forms,
// images dropped from a gallery and replaced main images whose removal
// failed. It runs on a cron schedule.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"shopadmin/internal/storage"
)

// Blobs is the object storage the janitor sweeps.
type Blobs interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Remove(ctx context.Context, key string) error
	FileURL(key string) string
}

// References reports every image URL still in use.
type References interface {
	ReferencedImageURLs(ctx context.Context) (map[string]struct{}, error)
}

// Result summarises one sweep.
type Result struct {
	Scanned int
	Removed int
	Failed  int
}

// Janitor sweeps unreferenced blobs under a set of key prefixes.
type Janitor struct {
	blobs    Blobs
	refs     References
	grace    time.Duration
	prefixes []string
	timeout  time.Duration
	now      func() time.Time
	cron     *cron.Cron
}

// New creates a janitor. Blobs younger than grace are never removed so
// that uploads not yet attached to a saved product survive.
func New(blobs Blobs, refs References, grace time.Duration, prefixes ...string) *Janitor {
	return &Janitor{
		blobs:    blobs,
		refs:     refs,
		grace:    grace,
		prefixes: prefixes,
		timeout:  10 * time.Minute,
		now:      time.Now,
	}
}

// Sweep lists the blobs, then the references, and removes every blob that
// is old enough and not referenced. Individual removal failures are
// logged and counted; the next sweep retries them.
func (j *Janitor) Sweep(ctx context.Context) (Result, error) {
	var res Result
	var objects []storage.Object
	for _, prefix := range j.prefixes {
		objs, err := j.blobs.List(ctx, prefix+"/")
		if err != nil {
			return res, fmt.Errorf("list blobs %s: %w", prefix, err)
		}
		objects = append(objects, objs...)
	}
	res.Scanned = len(objects)

	// References are loaded after listing so an image attached meanwhile
	// is already counted as in use.
	refs, err := j.refs.ReferencedImageURLs(ctx)
	if err != nil {
		return res, fmt.Errorf("load image references: %w", err)
	}

	cutoff := j.now().Add(-j.grace)
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if _, used := refs[j.blobs.FileURL(obj.Key)]; used {
			continue
		}
		if err := j.blobs.Remove(ctx, obj.Key); err != nil {
			slog.Warn("janitor remove failed", "key", obj.Key, "error", err)
			res.Failed++
			continue
		}
		slog.Debug("janitor removed orphaned blob", "key", obj.Key)
		res.Removed++
	}
	return res, nil
}

func (j *Janitor) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	res, err := j.Sweep(ctx)
	if err != nil {
		slog.Error("janitor sweep failed", "error", err)
		return
	}
	slog.Info("janitor sweep finished",
		"scanned", res.Scanned,
		"removed", res.Removed,
		"failed", res.Failed,
		"duration", time.Since(start),
	)
}

// Start schedules sweeps with a standard cron spec or descriptor such as
// "@every 6h". Overlapping runs are skipped.
func (j *Janitor) Start(spec string) error {
	logger := cron.PrintfLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, j.run); err != nil {
		return fmt.Errorf("schedule janitor %q: %w", spec, err)
	}
	j.cron = c
	c.Start()
	slog.Info("janitor scheduled", "spec", spec, "grace", j.grace, "prefixes", j.prefixes)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish or ctx
// to expire.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("janitor stop timed out")
	}
}
