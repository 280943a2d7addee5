package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/smartcart/internal/cart"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository reads products from the catalog database.
type Repository struct {
	db *gorm.DB
	tx txRunner
}

// NewRepository binds a repository to the provided connection. tx is only
// needed for Seed.
func NewRepository(db *gorm.DB, tx txRunner) *Repository {
	return &Repository{db: db, tx: tx}
}

// Product loads a single product by id.
func (r *Repository) Product(ctx context.Context, id string) (cart.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	var rec ProductRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return cart.Product{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found").
				WithDetails(map[string]any{"product_id": id})
		}
		return cart.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	product := rec.ToProduct()
	if err := product.Validate(); err != nil {
		return cart.Product{}, err
	}
	return product, nil
}

// List returns every valid product ordered by name. Rows that violate the
// price constraints are skipped.
func (r *Repository) List(ctx context.Context) ([]cart.Product, error) {
	var rows []ProductRecord
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := make([]cart.Product, 0, len(rows))
	for _, row := range rows {
		product := row.ToProduct()
		if product.Validate() != nil {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

// Seed upserts the given products in one transaction.
func (r *Repository) Seed(ctx context.Context, items []SeedItem) error {
	if r.tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	for _, item := range items {
		if err := item.Product.Validate(); err != nil {
			return err
		}
	}
	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, item := range items {
			rec := recordFromProduct(item.Product, item.Category)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "category", "price", "discount_price", "updated_at"}),
			}).Create(&rec).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed product")
			}
		}
		return nil
	})
}
