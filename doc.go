/*
Package modelstore provides a uniform storage abstraction: one contract
(Find, FindMultiple, Has, FindAll, Flush, Remove, RemoveAll) implemented by
interchangeable backend adapters, plus a composition layer that combines them.

Application code reads and writes opaque models keyed by an identifier without
knowing which backend holds them.

Composition:
  - Registry: ordered, named collection of storages
  - Locator: selects the storages whose Support accepts a model
  - Chain: composite storage; first-hit (or merged) reads, fan-out writes
  - Manager: single-storage facade with create/findOrCreate forwarding
  - Factory: resolves top-level storages by logical name
  - Typed[T]: type-safe facade over any Storage

Adapters live under provider/: memory, null, file, session, cache, redis,
badger, dynamodb and sqlite.

Basic Usage:

	products := memory.New(modelstore.ModelOf[*Product]())
	categories := memory.New(modelstore.ModelOf[*Category]())

	chain := modelstore.NewChain()
	chain.Register("products", products)
	chain.Register("categories", categories)

	// routed to the products storage only
	ok, err := chain.Flush(ctx, 2, &Product{ID: 2, Sku: "bar"})

	// first storage holding 2 wins
	model, err := chain.Find(ctx, 2)

	factory := modelstore.NewFactory(nil)
	factory.Register("catalog", chain)
	store, err := modelstore.GetTyped[*Product](factory, "catalog")

Chains and managers never swallow adapter errors; see the errors package for
the failure taxonomy.
*/
package modelstore
