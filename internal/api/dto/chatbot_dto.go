package dto

// ChatRequest payload.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
