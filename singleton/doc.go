// Package singleton provides a registry of lazily constructed, keyed
// instances.
//
// Each key's factory runs at most once per successful construction. Callers
// that arrive while a construction is in flight wait for it and receive the
// same instance, or the same failure. A failed construction leaves the key
// unbuilt so a later call can try again.
//
//	reg := singleton.NewRegistry()
//
//	db, err := singleton.GetOrCreate(ctx, reg, "db", func(ctx context.Context) (*sql.DB, error) {
//	    return sql.Open("postgres", dsn)
//	})
package singleton
