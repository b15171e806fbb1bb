// Package dto provides data transfer objects for the HTTP API.
package dto

// IDResponse returns the id of a created resource.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
