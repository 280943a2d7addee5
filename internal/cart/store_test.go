package cart

import (
	"math/rand"
	"testing"

	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestAddToCartKeepsInsertionOrderAndUniqueness(t *testing.T) {
	t.Parallel()

	store := NewStore()
	phone := Product{ID: "phone", Price: 20000}
	case_ := Product{ID: "case", Price: 1500}

	store.AddToCart(phone)
	store.AddToCart(case_)
	store.AddToCart(phone)

	entries := store.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Product.ID != "phone" || entries[0].Quantity != 2 {
		t.Fatalf("expected phone first with qty 2, got %+v", entries[0])
	}
	if entries[1].Product.ID != "case" || entries[1].Quantity != 1 {
		t.Fatalf("expected case second with qty 1, got %+v", entries[1])
	}
}

func TestRemoveFromCart(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.AddToCart(Product{ID: "a", Price: 100})
	store.AddToCart(Product{ID: "b", Price: 200})

	if store.RemoveFromCart("missing") {
		t.Fatalf("removing an absent product should be a no-op")
	}
	if !store.RemoveFromCart("a") {
		t.Fatalf("expected removal of a")
	}
	if _, ok := store.Quantity("a"); ok {
		t.Fatalf("a should be gone")
	}
	if store.Len() != 1 || store.Entries()[0].Product.ID != "b" {
		t.Fatalf("unexpected entries after removal: %+v", store.Entries())
	}
}

func TestIncrementAndDecrementQuantity(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.AddToCart(Product{ID: "a", Price: 100})

	if !store.IncrementQuantity("a") {
		t.Fatalf("expected increment")
	}
	if qty, _ := store.Quantity("a"); qty != 2 {
		t.Fatalf("expected qty 2, got %d", qty)
	}
	if !store.DecrementQuantity("a") {
		t.Fatalf("expected decrement from 2")
	}
	if store.DecrementQuantity("a") {
		t.Fatalf("decrement at qty 1 should be a no-op")
	}
	if qty, ok := store.Quantity("a"); !ok || qty != 1 {
		t.Fatalf("entry must stay at qty 1, got qty=%d present=%v", qty, ok)
	}
	if store.IncrementQuantity("missing") || store.DecrementQuantity("missing") {
		t.Fatalf("unknown ids should be no-ops")
	}
}

func TestClearCart(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if store.ClearCart() {
		t.Fatalf("clearing an empty cart should report no change")
	}
	store.AddToCart(Product{ID: "a", Price: 100})
	if !store.ClearCart() {
		t.Fatalf("expected clear to report a change")
	}
	if store.Len() != 0 || store.CartTotal() != 0 || store.ItemsCount() != 0 {
		t.Fatalf("expected empty cart, got %+v", store.Totals())
	}
}

func TestTotalsUseEffectivePrice(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.AddToCart(Product{ID: "tv", Price: 12000, DiscountPrice: intPtr(9000)})
	store.AddToCart(Product{ID: "cable", Price: 500})
	store.IncrementQuantity("cable")
	store.AddToCart(Product{ID: "zero-discount", Price: 700, DiscountPrice: intPtr(0)})

	totals := store.Totals()
	if totals.CartTotal != 9000+2*500+700 {
		t.Fatalf("unexpected cart total %d", totals.CartTotal)
	}
	if totals.ItemsCount != 4 {
		t.Fatalf("unexpected items count %d", totals.ItemsCount)
	}
	if totals.PointsToEarn != 107 {
		t.Fatalf("unexpected points %d", totals.PointsToEarn)
	}
}

func TestPointsFor(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		0:     0,
		99:    0,
		100:   1,
		199:   1,
		15000: 150,
	}
	for total, want := range cases {
		if got := PointsFor(total); got != want {
			t.Fatalf("PointsFor(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestEntriesReturnsCopies(t *testing.T) {
	t.Parallel()

	discount := 50
	store := NewStore()
	store.AddToCart(Product{ID: "a", Price: 100, DiscountPrice: &discount})
	discount = 10

	entries := store.Entries()
	entries[0].Quantity = 99
	*entries[0].Product.DiscountPrice = 1

	if got := store.CartTotal(); got != 50 {
		t.Fatalf("store state leaked through copies, total=%d", got)
	}
}

func TestRandomOperationSequencesKeepInvariants(t *testing.T) {
	t.Parallel()

	catalog := []Product{
		{ID: "a", Price: 100},
		{ID: "b", Price: 2500, DiscountPrice: intPtr(2000)},
		{ID: "c", Price: 99},
		{ID: "d", Price: 10001},
	}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		store := NewStore()
		for step := 0; step < 200; step++ {
			product := catalog[rng.Intn(len(catalog))]
			switch rng.Intn(5) {
			case 0, 1:
				store.AddToCart(product)
			case 2:
				store.IncrementQuantity(product.ID)
			case 3:
				store.DecrementQuantity(product.ID)
			case 4:
				if rng.Intn(4) == 0 {
					store.RemoveFromCart(product.ID)
				}
			}
			assertInvariants(t, store)
		}
	}
}

func assertInvariants(t *testing.T, store *Store) {
	t.Helper()

	seen := map[string]bool{}
	total, count := 0, 0
	for _, entry := range store.Entries() {
		if seen[entry.Product.ID] {
			t.Fatalf("duplicate entry for %s", entry.Product.ID)
		}
		seen[entry.Product.ID] = true
		if entry.Quantity < 1 {
			t.Fatalf("entry %s has quantity %d", entry.Product.ID, entry.Quantity)
		}
		total += entry.Product.EffectivePrice() * entry.Quantity
		count += entry.Quantity
	}
	totals := store.Totals()
	if totals.CartTotal != total || totals.ItemsCount != count || totals.PointsToEarn != total/100 {
		t.Fatalf("aggregates drifted: %+v vs total=%d count=%d", totals, total, count)
	}
}

func TestProductValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		product Product
		wantErr bool
	}{
		{name: "valid", product: Product{ID: "a", Price: 100}},
		{name: "valid discount", product: Product{ID: "a", Price: 100, DiscountPrice: intPtr(100)}},
		{name: "missing id", product: Product{Price: 100}, wantErr: true},
		{name: "zero price", product: Product{ID: "a"}, wantErr: true},
		{name: "discount above price", product: Product{ID: "a", Price: 100, DiscountPrice: intPtr(101)}, wantErr: true},
		{name: "zero discount", product: Product{ID: "a", Price: 100, DiscountPrice: intPtr(0)}, wantErr: true},
	}

	for _, tt := range tests {
		err := tt.product.Validate()
		if tt.wantErr {
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("%s: expected validation error, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
	}
}
