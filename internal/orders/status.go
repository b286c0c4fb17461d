package orders

import "github.com/nguyendm/salemarket-backend/pkg/enums"

// sellerTransitions is the status moves a seller may make on an order
// that carries at least one of their shop's line items. Admins bypass
// this table entirely.
var sellerTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusInTransit},
}

func sellerCanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range sellerTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
