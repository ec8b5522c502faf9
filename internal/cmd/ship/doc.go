// Package ship exposes the shared Run entrypoint the CLI uses to start the
// shipping agent, wiring cursor store, journal source, and remote sink into
// the loop and handling resume.
//
// Example:
//
//	cfg := config.Default()
//	_ = config.FromEnv(&cfg)
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//	_ = ship.Run(ctx, ship.Options{Config: cfg})
package ship
