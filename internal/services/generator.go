package services

import (
	"context"
	"math/rand/v2"

	"github.com/diewo77/goldenline/internal/models"
	"github.com/shopspring/decimal"
)

// SocioCategories are the categories given to generated households.
var SocioCategories = []string{"Etudiant", "Employe", "Independant"}

// Generator fills the store with random households.
type Generator struct {
	records *RecordService
	rng     *rand.Rand
}

func NewGenerator(records *RecordService, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{records: records, rng: rng}
}

// Household draws one random household: 0 to 5 children, a basket price
// between 50 and 2000 split into alimentaire, multimedia and autre.
func (g *Generator) Household() Household {
	price := g.uniform(decimal.NewFromInt(50), decimal.NewFromInt(2000))
	food := g.uniform(decimal.Zero, price)
	media := g.uniform(decimal.Zero, price.Sub(food))
	other := price.Sub(food).Sub(media)

	return Household{
		Basket: models.Basket{
			models.NewBasketLine("alimentaire", food),
			models.NewBasketLine("multimedia", media),
			models.NewBasketLine("autre", other),
		},
		Client: models.Client{
			ChildCount:    g.rng.IntN(6),
			SocioCategory: SocioCategories[g.rng.IntN(len(SocioCategories))],
			BasketPrice:   price,
		},
	}
}

// uniform returns a value in [lo, hi] with two decimals.
func (g *Generator) uniform(lo, hi decimal.Decimal) decimal.Decimal {
	span := hi.Sub(lo)
	v := lo.Add(span.Mul(decimal.NewFromFloat(g.rng.Float64()))).Round(2)
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Seed inserts n households and returns how many were stored.
func (g *Generator) Seed(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := g.records.CreateHousehold(ctx, g.Household()); err != nil {
			return i, err
		}
	}
	return n, nil
}
