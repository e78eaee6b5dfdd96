// Package mongo stores document.StateRecord values in MongoDB.
//
// StateStore maps the conditional state update onto a single
// findOneAndUpdate filtered by {_id, state}, which MongoDB applies atomically
// per document. A filter miss is reported as document.ErrRecordNotFound.
// Driver failures are joined with the package sentinels, so both
// errors.Is(err, mongo.ErrUpdateState) and errors.Is on the driver error work.
//
// # Usage
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//
//	coll, err := mongo.Collection(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongo.NewStateStore(coll)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//
//	persister := document.MustNewPersister(catalog, store, access)
//
// Connect retries the initial connection cfg.RetryAttempts times and gives up
// early when ctx is done. Healthcheck returns a probe for readiness endpoints.
package mongo
