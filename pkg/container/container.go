// Package container creates the dependency containers the HTTP handlers resolve their services from.
package container

import (
	"context"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
)

// New creates and registers a container named id. The container's own log lines are written to
// logger at debug level.
func New(id string, logger ectologger.Logger) (ectocontainer.DIContainer, error) {
	return ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:                       id,
		AllowCaptiveDependencies: true,
		AllowMissingDependencies: true,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{
			Prefix:  "ectoinject",
			Enabled: true,
			LogFunc: func(ctx context.Context, level, msg string) {
				logger.WithContext(ctx).WithField("level", level).Debug(msg)
			},
		},
	})
}
