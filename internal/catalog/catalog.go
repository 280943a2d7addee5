package catalog

import (
	"context"

	"github.com/angelmondragon/smartcart/internal/cart"
)

// Catalog is the read-only product source the cart resolves ids against.
type Catalog interface {
	Product(ctx context.Context, id string) (cart.Product, error)
	List(ctx context.Context) ([]cart.Product, error)
}
