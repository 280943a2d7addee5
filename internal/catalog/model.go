package catalog

import (
	"time"

	"github.com/angelmondragon/smartcart/internal/cart"
)

// ProductRecord is the products table row owned by the catalog service.
type ProductRecord struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Category      string    `gorm:"column:category;not null;default:''"`
	Price         int       `gorm:"column:price;not null"`
	DiscountPrice *int      `gorm:"column:discount_price"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (ProductRecord) TableName() string { return "products" }

// ToProduct maps the row onto the fields the cart prices against.
func (r ProductRecord) ToProduct() cart.Product {
	p := cart.Product{ID: r.ID, Name: r.Name, Price: r.Price}
	if r.DiscountPrice != nil {
		v := *r.DiscountPrice
		p.DiscountPrice = &v
	}
	return p
}

func recordFromProduct(p cart.Product, category string) ProductRecord {
	rec := ProductRecord{ID: p.ID, Name: p.Name, Category: category, Price: p.Price}
	if p.DiscountPrice != nil {
		v := *p.DiscountPrice
		rec.DiscountPrice = &v
	}
	return rec
}
