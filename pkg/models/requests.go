package models

// Request DTOs bound and validated at the HTTP surface.

type AddItemRequest struct {
	ProductID       string            `json:"productId" validate:"required"`
	Quantity        int               `json:"quantity" validate:"gte=1"`
	SelectedOptions map[string]string `json:"selectedOptions,omitempty"`
	Note            string            `json:"note,omitempty"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SetOptionRequest struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

type SetNoteRequest struct {
	Note string `json:"note"`
}

type AddImagesRequest struct {
	Images []string `json:"images" validate:"required,min=1,dive,required"`
}
