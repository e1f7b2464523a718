package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/poi-concierge/internal/types"
)

func TestBuildText(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		p := &types.POI{
			Name:          "Le Bernardin",
			Category:      "fine-dining",
			Subcategories: []string{"french", "seafood"},
			Address:       types.Address{Neighborhood: "Midtown"},
			Prestige:      types.Prestige{MichelinStars: 3},
			Experience: types.Experience{
				PriceRange:      "$$$$",
				Ambiance:        []string{"elegant", "formal"},
				NoiseLevel:      "quiet",
				SignatureDishes: []string{"tuna carpaccio", "poached halibut", "lobster", "extra dish"},
			},
			BestFor: types.BestFor{
				Occasions: []string{"celebration", "business-dinner"},
			},
		}

		got := BuildText(p)

		assert.Equal(t,
			"Le Bernardin is a fine-dining. "+
				"specializing in french, seafood. "+
				"located in Midtown. "+
				"with 3 Michelin stars. "+
				"The ambiance is elegant, formal. "+
				"with a quiet noise level. "+
				"Price range: $$$$. "+
				"Known for tuna carpaccio, poached halibut, lobster. "+
				"Perfect for celebration, business-dinner.",
			got)
	})

	t.Run("minimal poi falls back to restaurant", func(t *testing.T) {
		p := &types.POI{Name: "Corner Slice"}
		assert.Equal(t, "Corner Slice is a restaurant.", BuildText(p))
	})

	t.Run("single michelin star is singular", func(t *testing.T) {
		p := &types.POI{
			Name:     "Casa Mono",
			Category: "spanish",
			Prestige: types.Prestige{MichelinStars: 1},
		}
		assert.Equal(t, "Casa Mono is a spanish. with 1 Michelin star.", BuildText(p))
	})
}
