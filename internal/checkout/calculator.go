package checkout

import "github.com/shopspring/decimal"

const (
	// FreeDeliveryThreshold is the cart total that must be exceeded for free delivery.
	FreeDeliveryThreshold = 10000
	// StandardDeliveryFee applies at or below the threshold.
	StandardDeliveryFee = 300
)

// Input is everything the checkout summary depends on. An unset PromoRate
// means DefaultPromoRate.
type Input struct {
	CartTotal         int
	PromoApplied      bool
	PromoRate         decimal.NullDecimal
	LoyaltyPointsUsed int
}

// Summary is the payable breakdown shown at checkout.
type Summary struct {
	Subtotal        int  `json:"subtotal"`
	Discount        int  `json:"discount"`
	LoyaltyDiscount int  `json:"loyalty_discount"`
	DeliveryFee     int  `json:"delivery_fee"`
	FreeDelivery    bool `json:"free_delivery"`
	TotalPayable    int  `json:"total_payable"`
}

// Calculate derives the payable amount. Discount and loyalty come off the
// merchandise total; the delivery fee is decided on the unadjusted total.
// TotalPayable is not floored at zero.
func Calculate(in Input) Summary {
	rate := DefaultPromoRate
	if in.PromoRate.Valid {
		rate = in.PromoRate.Decimal
	}
	discount := PromoDiscount(in.CartTotal, in.PromoApplied, rate)
	loyalty := in.LoyaltyPointsUsed
	fee := DeliveryFee(in.CartTotal)

	return Summary{
		Subtotal:        in.CartTotal,
		Discount:        discount,
		LoyaltyDiscount: loyalty,
		DeliveryFee:     fee,
		FreeDelivery:    fee == 0,
		TotalPayable:    in.CartTotal - discount - loyalty + fee,
	}
}

// PromoDiscount returns round(cartTotal × rate), half away from zero.
func PromoDiscount(cartTotal int, applied bool, rate decimal.Decimal) int {
	if !applied {
		return 0
	}
	return int(decimal.NewFromInt(int64(cartTotal)).Mul(rate).Round(0).IntPart())
}

// DeliveryFee is waived only strictly above FreeDeliveryThreshold.
func DeliveryFee(cartTotal int) int {
	if cartTotal > FreeDeliveryThreshold {
		return 0
	}
	return StandardDeliveryFee
}
