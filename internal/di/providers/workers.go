package providers

import (
	"context"
	"errors"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/importer"
	"github.com/bookhaven/bookhaven-server/internal/jobs"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/notify"
)

// ImporterHandle wraps the inbox importer with its lifecycle.
type ImporterHandle struct {
	*importer.Importer
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *ImporterHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideImporter provides the inbox importer, already watching.
func ProvideImporter(i do.Injector) (*ImporterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	im, err := importer.New(cfg.InboxPath(), storeHandle.Store, log.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := im.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Importer stopped", "error", err)
		}
	}()

	return &ImporterHandle{Importer: im, cancel: cancel, done: done}, nil
}

// SweeperHandle wraps the overdue sweeper with its lifecycle.
type SweeperHandle struct {
	*jobs.OverdueSweeper
}

// Shutdown implements do.Shutdownable.
func (h *SweeperHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideOverdueSweeper provides the scheduled overdue sweep, already
// running on the configured cron expression.
func ProvideOverdueSweeper(i do.Injector) (*SweeperHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sender := do.MustInvoke[notify.Sender](i)
	log := do.MustInvoke[*logger.Logger](i)

	sweeper := jobs.NewOverdueSweeper(storeHandle.Store, sender, log.Logger)
	if err := sweeper.Start(cfg.Loans.OverdueSchedule); err != nil {
		return nil, err
	}

	log.Info("Overdue sweep scheduled", "schedule", cfg.Loans.OverdueSchedule)
	return &SweeperHandle{OverdueSweeper: sweeper}, nil
}
