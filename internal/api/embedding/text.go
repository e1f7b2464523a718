package embedding

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

// BuildText renders a POI into the sentence form used for embedding
// generation. Document and query embeddings live in the same space, so this
// is the only place that decides what a POI "says" about itself.
func BuildText(p *types.POI) string {
	var parts []string

	category := p.Category
	if category == "" {
		category = "restaurant"
	}
	parts = append(parts, fmt.Sprintf("%s is a %s", p.Name, category))

	if len(p.Subcategories) > 0 {
		parts = append(parts, fmt.Sprintf("specializing in %s", strings.Join(p.Subcategories, ", ")))
	}
	if p.Address.Neighborhood != "" {
		parts = append(parts, fmt.Sprintf("located in %s", p.Address.Neighborhood))
	}
	if stars := p.Prestige.MichelinStars; stars > 0 {
		plural := ""
		if stars > 1 {
			plural = "s"
		}
		parts = append(parts, fmt.Sprintf("with %d Michelin star%s", stars, plural))
	}
	if len(p.Experience.Ambiance) > 0 {
		parts = append(parts, fmt.Sprintf("The ambiance is %s", strings.Join(p.Experience.Ambiance, ", ")))
	}
	if p.Experience.NoiseLevel != "" {
		parts = append(parts, fmt.Sprintf("with a %s noise level", p.Experience.NoiseLevel))
	}
	if p.Experience.PriceRange != "" {
		parts = append(parts, fmt.Sprintf("Price range: %s", p.Experience.PriceRange))
	}
	if dishes := p.Experience.SignatureDishes; len(dishes) > 0 {
		if len(dishes) > 3 {
			dishes = dishes[:3]
		}
		parts = append(parts, fmt.Sprintf("Known for %s", strings.Join(dishes, ", ")))
	}
	if len(p.BestFor.Occasions) > 0 {
		parts = append(parts, fmt.Sprintf("Perfect for %s", strings.Join(p.BestFor.Occasions, ", ")))
	}

	return strings.Join(parts, ". ") + "."
}
