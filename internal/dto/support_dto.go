package dto

type CreateTicketRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Body    string `json:"body" validate:"required,max=5000"`
}

type ReplyTicketRequest struct {
	Body string `json:"body" validate:"required,max=5000"`
}

type CreateFeedbackRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=2000"`
}
