package api

import (
	"context"
	"time"

	"sgx-ingest/internal/domain"
)

// Function-field mocks. Unset fields panic so a test that asserts a call
// never happens can leave the field nil.

type mockRunner struct {
	runFn func(ctx context.Context, target *time.Time) (*domain.RunOutcome, error)
}

func (m *mockRunner) Run(ctx context.Context, target *time.Time) (*domain.RunOutcome, error) {
	if m.runFn == nil {
		panic("unexpected call to mockRunner.Run")
	}
	return m.runFn(ctx, target)
}

type mockVersions struct {
	listCurrentFn func(ctx context.Context) ([]domain.VersionRecord, error)
	historyFn     func(ctx context.Context, fileName string) ([]domain.VersionRecord, error)
}

func (m *mockVersions) ListCurrent(ctx context.Context) ([]domain.VersionRecord, error) {
	if m.listCurrentFn == nil {
		panic("unexpected call to mockVersions.ListCurrent")
	}
	return m.listCurrentFn(ctx)
}

func (m *mockVersions) History(ctx context.Context, fileName string) ([]domain.VersionRecord, error) {
	if m.historyFn == nil {
		panic("unexpected call to mockVersions.History")
	}
	return m.historyFn(ctx, fileName)
}
