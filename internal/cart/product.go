package cart

import (
	"strings"

	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
)

// Product is the catalog view the cart prices against. Prices are whole currency units.
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Price         int    `json:"price"`
	DiscountPrice *int   `json:"discount_price,omitempty"`
}

// EffectivePrice returns the discounted price when one is set, otherwise the list price.
// A zero discount price counts as unset.
func (p Product) EffectivePrice() int {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 {
		return *p.DiscountPrice
	}
	return p.Price
}

// HasDiscount reports whether the effective price comes from the discount price.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice != nil && *p.DiscountPrice > 0
}

// Validate checks the catalog constraints on a product.
func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p.Price <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive").
			WithDetails(map[string]any{"product_id": p.ID, "price": p.Price})
	}
	if p.DiscountPrice != nil {
		if *p.DiscountPrice <= 0 || *p.DiscountPrice > p.Price {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount price must be positive and not exceed price").
				WithDetails(map[string]any{"product_id": p.ID, "price": p.Price, "discount_price": *p.DiscountPrice})
		}
	}
	return nil
}

func (p Product) clone() Product {
	out := p
	if p.DiscountPrice != nil {
		v := *p.DiscountPrice
		out.DiscountPrice = &v
	}
	return out
}
