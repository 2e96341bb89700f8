/*
Package identity normalizes identifiers into storage keys.

Three small pieces are shared by every adapter:

  - Flattener turns an int, string or Composite identifier into one string.
    Composite values are joined with "_" in column order.

  - Validator rejects empty strings and the reserved characters {}()/\@:
    before a key-addressed backend builds its key.

  - NamespaceGenerator derives a collision-resistant token from a model type
    name and an optional prefix, so several model types can share one cache
    or Redis database.

Flattening a composite identifier:

	identity.NewFlattener().Flatten(identity.Columns("product_id", 4, "category_id", 1)) // "4_1"

KeyBuilder chains the three for cache, Redis and Badger adapters:

	kb := identity.NewKeyBuilder("github.com/acme/shop.Product", "shop")
	key, err := kb.Key(42) // "shop_<md5>:42"
*/
package identity
