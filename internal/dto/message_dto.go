package dto

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

type UnreadCount struct {
	ProductID string `json:"product_id"`
	Count     int64  `json:"count"`
}
