/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/modelstore"
	"github.com/suparena/modelstore/config"
	serrors "github.com/suparena/modelstore/errors"
	"github.com/suparena/modelstore/instrument"
	"github.com/suparena/modelstore/internal/testmodels"
	"github.com/suparena/modelstore/registry"
)

func init() {
	registry.Register[*testmodels.Product]("config.product")
	registry.Register[*testmodels.Category]("config.category")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "missing name",
			doc:  "storages:\n  - type: memory\n",
			want: "name is required",
		},
		{
			name: "unknown type",
			doc:  "storages:\n  - name: a\n    type: mongo\n",
			want: `unknown type "mongo"`,
		},
		{
			name: "duplicate",
			doc:  "storages:\n  - name: a\n    type: memory\n  - name: a\n    type: null\n",
			want: "declared twice",
		},
		{
			name: "forward chain member",
			doc:  "storages:\n  - name: c\n    type: chain\n    storages: [a]\n  - name: a\n    type: memory\n",
			want: "not declared before it",
		},
		{
			name: "unknown managed storage",
			doc:  "storages:\n  - name: m\n    type: manager\n    storage: a\n",
			want: "not declared before it",
		},
		{
			name: "file without dir",
			doc:  "storages:\n  - name: f\n    type: file\n",
			want: "dir is required",
		},
		{
			name: "dynamodb without table",
			doc:  "storages:\n  - name: d\n    type: dynamodb\n",
			want: "table is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	doc := fmt.Sprintf(`
storages:
  - name: products
    type: memory
    model: config.product
  - name: categories
    type: file
    model: config.category
    dir: %s
    codec: yaml
  - name: catalog
    type: chain
    storages: [products, categories]
  - name: shop
    type: manager
    storage: catalog
  - name: orphan
    type: manager
  - name: sink
    type: "null"
`, dir)

	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	rt, err := config.Build(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	assert.Equal(t, []string{"products", "categories", "catalog", "shop", "orphan", "sink"}, rt.Names())

	shop, err := rt.GetStorage("shop")
	require.NoError(t, err)

	ok, err := shop.Flush(ctx, 3, testmodels.NewCategory(3, "Fruit"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(dir, "storage-model-3"))

	products, err := rt.GetStorage("products")
	require.NoError(t, err)
	has, err := products.Has(ctx, 3)
	require.NoError(t, err)
	assert.False(t, has)

	found, err := shop.Find(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Fruit", found.(*testmodels.Category).Name)

	orphan, err := rt.GetStorage("orphan")
	require.NoError(t, err)
	_, err = orphan.Find(ctx, 3)
	assert.True(t, serrors.IsMissingStorage(err))
}

func TestBuildUnknownModel(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Parse([]byte(`
storages:
  - name: orders
    type: memory
    model: shop.order
  - name: products
    type: memory
    model: config.product
`))
	require.NoError(t, err)

	rt, err := config.Build(ctx, cfg)
	require.NoError(t, err)

	model, ok := rt.Model("orders")
	require.True(t, ok)
	assert.False(t, model.Declared())
	model, ok = rt.Model("products")
	require.True(t, ok)
	assert.Equal(t, modelstore.ModelOf[*testmodels.Product](), model)

	orders, err := rt.GetStorage("orders")
	require.NoError(t, err)
	ok, err = orders.Flush(ctx, 7, map[string]any{"total": 12})
	require.NoError(t, err)
	assert.True(t, ok)
	found, err := orders.Find(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total": 12}, found)

	_, ok = rt.Model("missing")
	assert.False(t, ok)
}

func TestBuildUnknownModelDynamoDB(t *testing.T) {
	cfg, err := config.Parse([]byte("storages:\n  - name: a\n    type: dynamodb\n    table: t\n    model: nope\n"))
	require.NoError(t, err)

	_, err = config.Build(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `storage "a"`)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Contains(t, err.Error(), "registered model type")
}

func TestBuildSharesSessions(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Parse([]byte(`
storages:
  - name: cart
    type: session
    session: abc
  - name: wishlist
    type: session
    session: abc
    namespace: wishlist
`))
	require.NoError(t, err)

	rt, err := config.Build(ctx, cfg)
	require.NoError(t, err)

	cart, err := rt.GetStorage("cart")
	require.NoError(t, err)
	wishlist, err := rt.GetStorage("wishlist")
	require.NoError(t, err)

	_, err = cart.Flush(ctx, 1, testmodels.NewProduct(1, "a", ""))
	require.NoError(t, err)
	_, err = wishlist.Flush(ctx, 1, testmodels.NewProduct(1, "b", ""))
	require.NoError(t, err)

	all, err := cart.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].(*testmodels.Product).Sku)
}

func TestEnvironmentOverridesRedisAddress(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	t.Setenv("MODELSTORE_REDIS_ADDR", mr.Addr())

	cfg, err := config.Parse([]byte(`
backends:
  redis:
    addr: 127.0.0.1:1
storages:
  - name: sessions
    type: redis
    model: config.product
    namespace: shop
    lifetime: 1m
`))
	require.NoError(t, err)
	assert.Equal(t, mr.Addr(), cfg.Backends.Redis.Addr)

	rt, err := config.Build(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	s, err := rt.GetStorage("sessions")
	require.NoError(t, err)
	_, err = s.Flush(ctx, 1, testmodels.NewProduct(1, "a", ""))
	require.NoError(t, err)

	assert.Len(t, mr.Keys(), 1)
	found, err := s.Find(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", found.(*testmodels.Product).Sku)
}

func TestBuildWithMetrics(t *testing.T) {
	ctx := context.Background()
	t.Setenv("MODELSTORE_METRICS", "true")

	cfg, err := config.Parse([]byte(`
backends:
  sqlite:
    path: ":memory:"
storages:
  - name: products
    type: sqlite
    model: config.product
  - name: embedded
    type: badger
    model: config.product
    namespace: emb
`))
	require.NoError(t, err)
	assert.True(t, cfg.Metrics)

	rt, err := config.Build(ctx, cfg, config.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })

	for _, name := range []string{"products", "embedded"} {
		s, err := rt.GetStorage(name)
		require.NoError(t, err)
		assert.IsType(t, &instrument.Storage{}, s)

		_, err = s.Flush(ctx, 1, testmodels.NewProduct(1, name, ""))
		require.NoError(t, err)

		created, err := modelstore.NewManager(s).FindOrCreate(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, &testmodels.Product{}, created)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modelstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storages:\n  - name: a\n    type: memory\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Storages, 1)
	assert.Equal(t, config.TypeMemory, cfg.Storages[0].Type)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MODELSTORE_LOADENV_CHECK=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("MODELSTORE_LOADENV_CHECK") })

	require.NoError(t, config.LoadEnv(path, filepath.Join(dir, "absent.env")))
	assert.Equal(t, "loaded", os.Getenv("MODELSTORE_LOADENV_CHECK"))
}
