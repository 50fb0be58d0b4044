package catalog

import "hoststore/internal/model"

// Product is a fixed (non-generated) storefront product.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Specifications map[string]string `json:"specifications"`
	Price          float64           `json:"price"`
	ServerType     string            `json:"server_type"`
	Features       []string          `json:"features"`
}

// CartItem converts the product to its cart representation.
func (p Product) CartItem() model.CartItem {
	return model.CartItem{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}

// Products returns the fixed AI/ML VPS line.
func Products() []Product {
	return []Product{
		{
			ID:          "1",
			Name:        "AI Development VPS",
			Description: "Perfect for machine learning development and testing",
			Specifications: map[string]string{
				"cpu":     "4 vCPU",
				"ram":     "16 GB",
				"storage": "100 GB NVMe SSD",
				"gpu":     "NVIDIA T4 (Optional)",
			},
			Price:      49.99,
			ServerType: "Ubuntu/Windows",
			Features:   []string{"TensorFlow", "PyTorch", "CUDA Support", "Jupyter Notebooks"},
		},
		{
			ID:          "2",
			Name:        "ML Production VPS",
			Description: "High-performance solution for ML model deployment",
			Specifications: map[string]string{
				"cpu":     "8 vCPU",
				"ram":     "32 GB",
				"storage": "200 GB NVMe SSD",
				"gpu":     "NVIDIA T4",
			},
			Price:      99.99,
			ServerType: "Ubuntu/Windows",
			Features:   []string{"Docker Support", "Kubernetes Ready", "MLflow", "Model Serving"},
		},
		{
			ID:          "3",
			Name:        "Enterprise AI VPS",
			Description: "Enterprise-grade infrastructure for AI workloads",
			Specifications: map[string]string{
				"cpu":     "16 vCPU",
				"ram":     "64 GB",
				"storage": "500 GB NVMe SSD",
				"gpu":     "NVIDIA A100",
			},
			Price:      199.99,
			ServerType: "Ubuntu/Windows",
			Features:   []string{"Distributed Training", "Auto-scaling", "High Availability", "Enterprise Support"},
		},
	}
}

// FindProduct looks up a fixed product by ID.
func FindProduct(id string) (Product, bool) {
	for _, p := range Products() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
