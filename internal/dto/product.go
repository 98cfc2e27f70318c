package dto

import (
	"time"

	"github.com/nrbrt02/fast-shopping/internal/entity"
)

// ProductResponse represents a catalogue entry.
type ProductResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Quantity    int       `json:"quantity"`
	IsPublished bool      `json:"is_published"`
	IsDigital   bool      `json:"is_digital"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Quantity:    p.Quantity,
		IsPublished: p.IsPublished,
		IsDigital:   p.IsDigital,
		CreatedAt:   p.CreatedAt,
	}
}

func NewProductResponses(products []*entity.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}
