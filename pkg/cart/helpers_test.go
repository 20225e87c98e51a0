package cart_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/catalog"
)

// mustProduct copies an existing product under a new id.
func (f *fixture) mustProduct(t *testing.T, from, id string) catalog.Product {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), from)
	require.NoError(t, err)
	p.ID = id
	return p
}

func emptyCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog()
}
