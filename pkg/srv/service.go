package srv

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/riskmon/pkg/log"
)

const shutdownTimeout = 10 * time.Second

type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Named services get a readable label in lifecycle logs.
type Named interface {
	Name() string
}

func name(s Service) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			logger.Debug().Str("service", name(service)).Msg("starting")
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%s failed to start", name(service))
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is done, then stops services in reverse
// order so that producers stop before the sinks they write to.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()

	logger := log.FromCtx(ctx)
	sctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), shutdownTimeout)
	defer cancel()

	for i := len(services) - 1; i >= 0; i-- {
		service := services[i]
		if err := service.Shutdown(sctx); err != nil {
			logger.Error().Err(err).Msgf("%s failed to shutdown", name(service))
		}
	}
}
