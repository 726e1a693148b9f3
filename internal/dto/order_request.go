package dto

type OrderItemRequest struct {
	ProductID int     `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CreateOrderRequest struct {
	UserID      uint               `json:"userId"`
	TotalAmount float64            `json:"totalAmount"`
	Items       []OrderItemRequest `json:"items"`
}

// UpdateOrderRequest carries the complete desired post-update state of an
// order. The merge ignores identity fields; a status differing from the
// stored one is rejected.
type UpdateOrderRequest struct {
	UserID      uint               `json:"userId"`
	TotalAmount float64            `json:"totalAmount"`
	Status      string             `json:"status"`
	Items       []OrderItemRequest `json:"items"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}
