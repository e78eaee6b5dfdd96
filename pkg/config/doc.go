// Package config loads env-tagged configuration structs.
//
// Every package in this module that needs settings exposes a Config struct
// with caarlos0/env tags (fsm.Config, mongo.Config, redis.Config, pg.Config,
// document.Config, logger.Config). Load fills such a struct from the process
// environment, after reading a .env file once per process if present:
//
//	var cfg fsm.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// WithPrefix lets one process hold several instances of the same struct, for
// example two machines with different retry budgets:
//
//	var orders fsm.Config
//	config.MustLoad(&orders, config.WithPrefix("ORDERS_"))
//
// Parsed values are cached per type and prefix; Reset clears the cache.
package config
