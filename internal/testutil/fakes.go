// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

package testutil

import (
	"context"

	"github.com/iclaudius/claudius/internal/model"
)

// FakeProber is a lightweight stand-in for the system prober.
type FakeProber struct {
	VersionString string
	Running       int
	// Err, if set, is returned by both calls.
	Err error
}

func (f *FakeProber) Version(context.Context) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	return f.VersionString, nil
}

func (f *FakeProber) Sessions(context.Context) (int, error) {
	if f.Err != nil {
		return 0, f.Err
	}
	return f.Running, nil
}

// FakeCron returns a fixed job list.
type FakeCron struct {
	Jobs []model.CronJob
	// ListFunc, if set, replaces the fixed list.
	ListFunc func(ctx context.Context) ([]model.CronJob, error)
}

func (f *FakeCron) List(ctx context.Context) ([]model.CronJob, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx)
	}
	return f.Jobs, nil
}
