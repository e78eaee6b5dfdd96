// Package logger builds the *slog.Logger instances used across the module and
// keeps attribute naming consistent between the engine, the persisters and the
// state stores.
//
// New takes functional options (format, level, output, static attributes and
// context extractors). NewFromConfig does the same from an env-tagged Config,
// so services can configure logging with the rest of their settings:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.NewFromConfig(cfg, logger.WithContextValue("request_id", requestIDKey{}))
//
// Attribute helpers (Machine, Event, FromState, ToState, Attempt, Error, ...)
// return slog.Attr values; the nil-aware ones return an empty Attr that slog
// drops, so call sites never need a nil check:
//
//	log.WarnContext(ctx, "retrying event", logger.Machine("orders"), logger.Error(err))
package logger
