package enums

import "fmt"

// VoucherTarget selects which monetary base a voucher discounts.
type VoucherTarget string

const (
	VoucherTargetProduct  VoucherTarget = "product"
	VoucherTargetShipping VoucherTarget = "shipping"
)

var validVoucherTargets = []VoucherTarget{
	VoucherTargetProduct,
	VoucherTargetShipping,
}

// IsValid reports whether the value is a known VoucherTarget.
func (v VoucherTarget) IsValid() bool {
	for _, candidate := range validVoucherTargets {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoucherTarget converts raw input into a VoucherTarget.
func ParseVoucherTarget(value string) (VoucherTarget, error) {
	for _, candidate := range validVoucherTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher target %q", value)
}

// DiscountMethod selects how a voucher's discount value is interpreted.
type DiscountMethod string

const (
	DiscountMethodPercentage  DiscountMethod = "percentage"
	DiscountMethodFixedAmount DiscountMethod = "fixed_amount"
)

var validDiscountMethods = []DiscountMethod{
	DiscountMethodPercentage,
	DiscountMethodFixedAmount,
}

// IsValid reports whether the value is a known DiscountMethod.
func (m DiscountMethod) IsValid() bool {
	for _, candidate := range validDiscountMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseDiscountMethod converts raw input into a DiscountMethod.
func ParseDiscountMethod(value string) (DiscountMethod, error) {
	for _, candidate := range validDiscountMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount method %q", value)
}
