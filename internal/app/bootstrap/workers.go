package bootstrap

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/idseva-booking/pkg/logging"
)

// Worker is a background loop that returns once its context is cancelled.
type Worker struct {
	Name string
	Run  func(ctx context.Context)
}

// StartWorkers runs each worker in g. Workers never fail the group; they
// stop with ctx.
func StartWorkers(ctx context.Context, g *errgroup.Group, logger *logging.Logger, workers ...Worker) {
	if logger == nil {
		logger = logging.Default()
	}
	for _, w := range workers {
		if w.Run == nil {
			continue
		}
		g.Go(func() error {
			logger.Info("worker started", "worker", w.Name)
			w.Run(ctx)
			logger.Info("worker stopped", "worker", w.Name)
			return nil
		})
	}
}
