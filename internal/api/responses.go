package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type OKResponse struct {
	OK bool `json:"ok" example:"true"`
}

type ReceivedResponse struct {
	Received bool `json:"received" example:"true"`
}
