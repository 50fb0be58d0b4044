// Package catalog generates the storefront's server tiers and fixed product
// list. Tiers are derived, not stored: each category expands into the same
// arithmetic progressions of size, spec and price.
package catalog

import (
	"fmt"
	"strings"

	"hoststore/internal/model"
)

// Category groups server tiers by workload.
type Category string

const (
	CategoryCloud     Category = "cloud"
	CategoryGaming    Category = "gaming"
	CategoryStreaming Category = "streaming"
)

// Categories lists all tier categories in display order.
var Categories = []Category{CategoryCloud, CategoryGaming, CategoryStreaming}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryCloud, CategoryGaming, CategoryStreaming:
		return true
	}
	return false
}

// Specifications describes a tier's hardware allocation.
type Specifications struct {
	CPU            string   `json:"cpu"`
	RAM            string   `json:"ram"`
	Storage        string   `json:"storage"`
	GPU            string   `json:"gpu,omitempty"`
	Network        string   `json:"network"`
	Bandwidth      string   `json:"bandwidth"`
	DDoSProtection string   `json:"ddos_protection"`
	Backup         string   `json:"backup"`
	OS             []string `json:"os"`
}

// Tier is a purchasable server plan.
type Tier struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       Category       `json:"category"`
	Description    string         `json:"description"`
	Specifications Specifications `json:"specifications"`
	Features       []string       `json:"features"`
	Price          float64        `json:"price"`
}

// CartItem converts the tier to its cart representation.
func (t Tier) CartItem() model.CartItem {
	return model.CartItem{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Price:       t.Price,
	}
}

func cpuType(category Category) string {
	if category == CategoryGaming {
		return "AMD EPYC"
	}
	return "Intel Xeon"
}

func title(category Category) string {
	s := string(category)
	return strings.ToUpper(s[:1]) + s[1:]
}

// GenerateTiers expands a category into its fourteen tiers: basic 1–8 GB,
// professional 16–64 GB and enterprise 128–512 GB, with prices following the
// original progressions (i×9.99, (i/2)×19.99, (i/4)×29.99).
func GenerateTiers(category Category) []Tier {
	var tiers []Tier

	// Basic tiers (1GB - 8GB)
	for i := 1; i <= 8; i++ {
		spec := Specifications{
			CPU:            fmt.Sprintf("%d vCPU %s", i, cpuType(category)),
			RAM:            fmt.Sprintf("%dGB DDR4", i),
			Storage:        fmt.Sprintf("%dGB NVMe SSD", i*25),
			Network:        fmt.Sprintf("%dGbps", i),
			Bandwidth:      fmt.Sprintf("%dTB/month", i*2),
			DDoSProtection: "Basic DDoS Protection",
			Backup:         "Weekly Backups",
			OS:             []string{"Ubuntu", "CentOS", "Windows Server"},
		}
		if category != CategoryCloud {
			if i <= 4 {
				spec.GPU = "Shared GPU"
			} else {
				spec.GPU = "NVIDIA T4 (Shared)"
			}
		}
		tiers = append(tiers, Tier{
			ID:             fmt.Sprintf("%s-basic-%d", category, i),
			Name:           fmt.Sprintf("%s Basic %dGB", title(category), i),
			Category:       category,
			Description:    fmt.Sprintf("Entry-level %dGB server for basic %s needs", i, category),
			Specifications: spec,
			Features: []string{
				"Basic Monitoring",
				"99.9% Uptime",
				"24/7 Support",
				fmt.Sprintf("%d Snapshots", i),
			},
			Price: float64(i) * 9.99,
		})
	}

	// Professional tiers (16GB - 64GB)
	for i := 16; i <= 64; i *= 2 {
		spec := Specifications{
			CPU:            fmt.Sprintf("%d vCPU %s", i/2, cpuType(category)),
			RAM:            fmt.Sprintf("%dGB DDR4 ECC", i),
			Storage:        fmt.Sprintf("%dGB NVMe SSD", i*50),
			Network:        fmt.Sprintf("%dGbps", i/4),
			Bandwidth:      fmt.Sprintf("%dTB/month", i),
			DDoSProtection: "Advanced DDoS Protection",
			Backup:         "Daily Backups",
			OS:             []string{"Ubuntu Pro", "CentOS", "Windows Server", "Red Hat"},
		}
		if category != CategoryCloud {
			if i <= 32 {
				spec.GPU = "NVIDIA T4"
			} else {
				spec.GPU = "NVIDIA A4000"
			}
		}
		tiers = append(tiers, Tier{
			ID:             fmt.Sprintf("%s-pro-%d", category, i),
			Name:           fmt.Sprintf("%s Pro %dGB", title(category), i),
			Category:       category,
			Description:    fmt.Sprintf("Professional %dGB server for advanced %s workloads", i, category),
			Specifications: spec,
			Features: []string{
				"Advanced Monitoring",
				"99.95% Uptime",
				"Priority Support",
				fmt.Sprintf("%d Dedicated IP(s)", i/4),
				"Load Balancing",
			},
			Price: float64(i/2) * 19.99,
		})
	}

	// Enterprise tiers (128GB - 512GB)
	for i := 128; i <= 512; i *= 2 {
		spec := Specifications{
			CPU:            fmt.Sprintf("%d vCPU %s", i/4, cpuType(category)),
			RAM:            fmt.Sprintf("%dGB DDR4 ECC", i),
			Storage:        fmt.Sprintf("%dGB NVMe SSD RAID 10", i*100),
			Network:        fmt.Sprintf("%dGbps", i/8),
			Bandwidth:      "Unlimited",
			DDoSProtection: "Enterprise DDoS Protection",
			Backup:         "Real-time Backups",
			OS:             []string{"All Major Distributions"},
		}
		if category != CategoryCloud {
			if i <= 256 {
				spec.GPU = "NVIDIA A4000"
			} else {
				spec.GPU = "NVIDIA A100"
			}
		}
		tiers = append(tiers, Tier{
			ID:             fmt.Sprintf("%s-enterprise-%d", category, i),
			Name:           fmt.Sprintf("%s Enterprise %dGB", title(category), i),
			Category:       category,
			Description:    fmt.Sprintf("Enterprise-grade %dGB server for large-scale %s operations", i, category),
			Specifications: spec,
			Features: []string{
				"Enterprise Monitoring",
				"99.99% Uptime",
				"Dedicated Account Manager",
				fmt.Sprintf("%d Dedicated IP(s)", i/32),
				"Global Load Balancing",
				"Multi-region Deployment",
				"Custom Solutions",
			},
			Price: float64(i/4) * 29.99,
		})
	}

	return tiers
}

// AllTiers expands every category.
func AllTiers() []Tier {
	var all []Tier
	for _, c := range Categories {
		all = append(all, GenerateTiers(c)...)
	}
	return all
}

// FindTier looks up a tier by its derived ID across all categories.
func FindTier(id string) (Tier, bool) {
	for _, t := range AllTiers() {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}
