package catalog

import (
	"context"
	"strings"

	"github.com/angelmondragon/smartcart/internal/cart"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
)

// SeedItem is a product plus the category it is filed under.
type SeedItem struct {
	Product  cart.Product
	Category string
}

// Memory is an in-process catalog, used for local runs and tests. It is
// read-only once NewMemory returns.
type Memory struct {
	order    []string
	products map[string]cart.Product
}

// NewMemory builds a catalog holding items in the given order.
func NewMemory(items ...SeedItem) (*Memory, error) {
	m := &Memory{products: make(map[string]cart.Product, len(items))}
	for _, item := range items {
		if err := item.Product.Validate(); err != nil {
			return nil, err
		}
		if _, dup := m.products[item.Product.ID]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product id").
				WithDetails(map[string]any{"product_id": item.Product.ID})
		}
		m.order = append(m.order, item.Product.ID)
		m.products[item.Product.ID] = item.Product
	}
	return m, nil
}

func (m *Memory) Product(ctx context.Context, id string) (cart.Product, error) {
	product, ok := m.products[strings.TrimSpace(id)]
	if !ok {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": id})
	}
	return product, nil
}

func (m *Memory) List(ctx context.Context) ([]cart.Product, error) {
	out := make([]cart.Product, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.products[id])
	}
	return out, nil
}

// DefaultSeed is the storefront's demo assortment.
func DefaultSeed() []SeedItem {
	return []SeedItem{
		{Category: "phones", Product: cart.Product{ID: "p-galaxy-a55", Name: "Galaxy A55 5G", Price: 124900, DiscountPrice: intPtr(114900)}},
		{Category: "phones", Product: cart.Product{ID: "p-redmi-13c", Name: "Redmi 13C", Price: 36999}},
		{Category: "audio", Product: cart.Product{ID: "p-buds-pro", Name: "Wireless Earbuds Pro", Price: 8500, DiscountPrice: intPtr(6990)}},
		{Category: "audio", Product: cart.Product{ID: "p-bt-speaker", Name: "Bluetooth Speaker", Price: 12500}},
		{Category: "accessories", Product: cart.Product{ID: "p-usb-c-cable", Name: "USB-C Cable 1m", Price: 990}},
		{Category: "accessories", Product: cart.Product{ID: "p-fast-charger", Name: "25W Fast Charger", Price: 4500, DiscountPrice: intPtr(3990)}},
		{Category: "accessories", Product: cart.Product{ID: "p-power-bank", Name: "Power Bank 10000mAh", Price: 7990}},
		{Category: "wearables", Product: cart.Product{ID: "p-smart-band", Name: "Smart Band 8", Price: 11990, DiscountPrice: intPtr(9990)}},
	}
}

func intPtr(v int) *int { return &v }
