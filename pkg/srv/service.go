// Package srv runs long-lived services with a shared lifecycle.
package srv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandevgo/tuskmem/pkg/log"
)

const shutdownTimeout = 10 * time.Second

// Service is a component with a blocking Start and a Shutdown that makes
// Start return.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("service", fmt.Sprintf("%T", service)).Msg("service stopped with error")
			}
		}(service)
	}
}

// ShutdownServices waits for ctx to end, then shuts services down in reverse
// order so later services can still use the earlier ones while stopping.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()

	logger := log.FromCtx(ctx)
	logger.Info().Msg("shutting down services")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("service", fmt.Sprintf("%T", services[i])).Msg("shutdown failed")
		}
	}
}

type stopOnExit struct {
	Service
	stop func()
	once sync.Once
}

// StopOnExit calls stop once the wrapped service's Start returns, so a service
// that ends on its own (stdin closed, bot stopped) brings the process down.
func StopOnExit(s Service, stop func()) Service {
	return &stopOnExit{Service: s, stop: stop}
}

func (s *stopOnExit) Start(ctx context.Context) error {
	defer s.once.Do(s.stop)
	return s.Service.Start(ctx)
}
