package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/smartcart/api/responses"
	"github.com/angelmondragon/smartcart/internal/cart"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"github.com/angelmondragon/smartcart/pkg/logger"
)

type productLister interface {
	List(ctx context.Context) ([]cart.Product, error)
}

type productResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Price          int    `json:"price"`
	DiscountPrice  *int   `json:"discount_price,omitempty"`
	EffectivePrice int    `json:"effective_price"`
}

func newProductResponse(p cart.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
	}
}

// ProductsList returns the browsable catalog.
func ProductsList(catalog productLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if catalog == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		products, err := catalog.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, newProductResponse(p))
		}
		responses.WriteSuccess(w, out)
	}
}
