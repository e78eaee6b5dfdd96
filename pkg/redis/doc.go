// Package redis connects to Redis and stores document.StateRecord values in
// hashes.
//
// Each record lives under prefix+id. UpdateState runs a Lua script that
// compares the state field and writes the new state, previous state and
// timestamp in one atomic step. A mismatch or missing key is reported as
// document.ErrRecordNotFound.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewStateStore(client, redis.WithConfig(cfg))
//	persister := document.MustNewPersister(catalog, store, access)
//
// Healthcheck returns a probe for readiness endpoints.
//
// # Errors
//
// Driver errors are joined with the package sentinels (ErrUpdateState,
// ErrRedisNotReady and so on) via errors.Join.
package redis
