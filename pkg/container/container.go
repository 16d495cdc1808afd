// Package container registers the services that HTTP handlers resolve per
// request with ectoinject
package container

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectoinject/loglevel"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/jobs"
	"github.com/Ramsey-B/fern/pkg/resolution"
)

// Dependencies are the instances handlers resolve
type Dependencies struct {
	Logger ectologger.Logger
	Engine *resolution.Engine
	Runner *jobs.Runner
	Store  jobs.Store
	Limits jobs.Limits
}

// New creates and registers the container with the given id. Container ids
// are process-wide; the first container created becomes the default.
func New(id string, deps Dependencies) (ectocontainer.DIContainer, error) {
	logger := deps.Logger
	c, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       id,
		AllowCaptiveDependencies: true,
		ConstructorFuncName:      "Constructor",
		InjectTagName:            "inject",
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{
			Prefix:   "ectoinject",
			LogLevel: loglevel.WARN,
			Enabled:  true,
			LogFunc: func(ctx context.Context, level, msg string) {
				log := logger.WithContext(ctx).WithField("container_id", id)
				if level == loglevel.WARN {
					log.Warn(msg)
					return
				}
				log.Debug(msg)
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create container %q: %w", id, err)
	}

	registrations := []func() error{
		func() error { return ectoinject.RegisterInstance[ectologger.Logger](c, deps.Logger) },
		func() error { return ectoinject.RegisterInstance[*resolution.Engine](c, deps.Engine) },
		func() error { return ectoinject.RegisterInstance[*jobs.Runner](c, deps.Runner) },
		func() error { return ectoinject.RegisterInstance[jobs.Store](c, deps.Store) },
		func() error { return ectoinject.RegisterInstance[jobs.Limits](c, deps.Limits) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return nil, fmt.Errorf("failed to register dependency: %w", err)
		}
	}

	return c, nil
}
