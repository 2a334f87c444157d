package dto

import "logistics-dashboard-service/internal/domain"

type OptimizeRequest struct {
	Month string `json:"month"`
}

type MonthsResponse struct {
	Months []string `json:"months"`
}

type RoutesResponse struct {
	Routes []domain.Route `json:"routes"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Hint   string       `json:"hint,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}
