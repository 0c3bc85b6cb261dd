package model

// ModelInfo describes a model that can be requested.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description,omitempty"`
}

// ModelsResponse lists the models the service can route.
type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
}
