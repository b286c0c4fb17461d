package vouchers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	apperrors "github.com/nguyendm/salemarket-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Evaluate computes the discount a voucher grants against the given base
// amount. The minimum-spend gate is always checked against the order
// subtotal, including for shipping vouchers.
//
// The returned discount is capped first by the voucher's max discount
// amount and then by the base itself, so it can never push a total
// negative.
func Evaluate(v *models.Voucher, base, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if v == nil || !v.IsActive || v.Quantity <= 0 || isExpired(v, now) {
		return decimal.Zero, apperrors.New(apperrors.CodeStateConflict, "voucher expired or unavailable")
	}
	if v.MinSpend != nil && subtotal.LessThan(*v.MinSpend) {
		return decimal.Zero, apperrors.New(apperrors.CodeStateConflict, "order subtotal below voucher minimum spend")
	}

	var discount decimal.Decimal
	if v.MethodType == enums.DiscountMethodPercentage {
		discount = base.Mul(v.DiscountValue).Div(hundred)
	} else {
		discount = v.DiscountValue
	}

	if v.MaxDiscountAmount != nil && discount.GreaterThan(*v.MaxDiscountAmount) {
		discount = *v.MaxDiscountAmount
	}
	if discount.GreaterThan(base) {
		discount = base
	}
	return discount, nil
}

func isExpired(v *models.Voucher, now time.Time) bool {
	if v.StartDate != nil && now.Before(*v.StartDate) {
		return true
	}
	return v.EndDate != nil && v.EndDate.Before(now)
}
