// Package pg stores document.StateRecord values in PostgreSQL using pgx/v5.
//
// Migrate applies the embedded goose migrations that create the
// state_records table. StateStore implements document.Store on top of any
// pgx query interface: a pool, a single connection or a transaction.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//		return err
//	}
//
//	store := pg.NewStateStore(pool)
//	persister := document.MustNewPersister(catalog, store, access)
//
// # Conditional updates
//
// UpdateState is
//
//	UPDATE state_records SET state = $3, prev_state = $2, updated_at = $4
//	WHERE id = $1 AND state = $2 RETURNING ...
//
// Zero rows means the state moved on or the record does not exist; both are
// reported as document.ErrRecordNotFound and the persister tells them apart
// with a follow-up FindByID.
package pg
