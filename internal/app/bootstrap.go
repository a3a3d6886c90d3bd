package app

import (
	"cluster-service/internal/components"
	"cluster-service/internal/config"
	"cluster-service/internal/container"
	"cluster-service/internal/graphics"
	"cluster-service/internal/hardware"
	"cluster-service/internal/logger"
	"cluster-service/internal/messaging"
	"cluster-service/internal/panels"
	"cluster-service/internal/prefs"
	"cluster-service/internal/sensors"
	"cluster-service/internal/styles"
	"cluster-service/internal/triggers"
)

// Bootstrap registers every service into a fresh container. Resolution is
// lazy: nothing is constructed here, so tests can overwrite individual
// registrations before the first resolve.
func Bootstrap(cfg *config.Config, log *logger.Logger) *container.Container {
	c := container.New(log)

	container.RegisterSingleton(c, func() *config.Config { return cfg })
	container.RegisterSingleton(c, func() *logger.Logger { return log })

	container.RegisterSingleton(c, func() hardware.IO {
		return hardware.NewLinuxIO(cfg, log)
	})

	container.RegisterSingleton(c, func() *graphics.Engine {
		return graphics.NewEngine(log)
	})

	container.RegisterSingleton(c, func() *styles.Service {
		return styles.NewService(log)
	})

	container.RegisterSingleton(c, func() Messenger {
		return messaging.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, log)
	})

	container.RegisterSingleton(c, func() prefs.Store {
		return container.MustResolve[Messenger](c)
	})

	container.RegisterSingleton(c, func() *prefs.Service {
		return prefs.NewService(container.MustResolve[prefs.Store](c), log)
	})

	container.RegisterSingleton(c, func() *sensors.Factory {
		f := sensors.NewFactory(log)
		f.RegisterDefaults()
		return f
	})

	container.RegisterSingleton(c, func() *components.Factory {
		f := components.NewFactory(log)
		f.RegisterDefaults()
		return f
	})

	container.RegisterSingleton(c, func() *panels.Factory {
		f := panels.NewFactory(log)
		f.RegisterDefaults()
		return f
	})

	container.RegisterSingleton(c, func() *panels.Service {
		deps := panels.Deps{
			IO:         container.MustResolve[hardware.IO](c),
			Style:      container.MustResolve[*styles.Service](c),
			Components: container.MustResolve[*components.Factory](c),
			Sensors:    container.MustResolve[*sensors.Factory](c),
			Prefs:      container.MustResolve[*prefs.Service](c),
			Logger:     log,
		}
		return panels.NewService(
			container.MustResolve[*graphics.Engine](c),
			deps.IO,
			container.MustResolve[*panels.Factory](c),
			deps,
			cfg.LoadTimeout(),
		)
	})

	container.RegisterSingleton(c, func() *triggers.Service {
		return triggers.NewService(
			container.MustResolve[hardware.IO](c),
			container.MustResolve[*panels.Service](c),
			container.MustResolve[*styles.Service](c),
			container.MustResolve[*prefs.Service](c),
			log,
			triggers.DefaultMappings(cfg),
		)
	})

	container.RegisterSingleton(c, func() *App {
		return newApp(c)
	})

	return c
}
