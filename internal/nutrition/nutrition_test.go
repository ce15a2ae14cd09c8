package nutrition

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

var sampleProduct = Product{Amount: 100, Unit: Gram, Protein: 10, Fat: 5, Carbons: 20}

func assertNutrients(t *testing.T, want, got Nutrients) {
	t.Helper()
	assert.InDelta(t, want.Proteins, got.Proteins, eps, "proteins")
	assert.InDelta(t, want.Fats, got.Fats, eps, "fats")
	assert.InDelta(t, want.Carbs, got.Carbs, eps, "carbs")
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{"g": Gram, " KG ": Kilogram, "ml": Milliliter, "L": Liter} {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseUnit("oz")
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestUnitJSONRoundTrip(t *testing.T) {
	type payload struct {
		Unit Unit `json:"unit"`
	}
	for _, u := range []Unit{"", Gram, Liter} {
		raw, err := json.Marshal(payload{Unit: u})
		require.NoError(t, err)
		var got payload
		require.NoError(t, json.Unmarshal(raw, &got), string(raw))
		assert.Equal(t, u, got.Unit)
	}

	var got payload
	assert.NoError(t, json.Unmarshal([]byte(`{}`), &got))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"unit":"cup"}`), &got), ErrUnknownUnit)
}

func TestUnitFamilies(t *testing.T) {
	assert.Equal(t, FamilyMass, Gram.Family())
	assert.Equal(t, FamilyMass, Kilogram.Family())
	assert.Equal(t, FamilyVolume, Milliliter.Family())
	assert.Equal(t, FamilyVolume, Liter.Family())

	assert.Equal(t, []Unit{Gram, Kilogram}, AvailableUnits(Kilogram))
	assert.Equal(t, []Unit{Milliliter, Liter}, AvailableUnits(Milliliter))
	assert.Nil(t, AvailableUnits(Unit("oz")))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		unit   Unit
		want   Amount
	}{
		{"grams below threshold", 500, Gram, Amount{500, Gram}},
		{"exactly 1000 g stays", 1000, Gram, Amount{1000, Gram}},
		{"multiple of 1000 g", 2000, Gram, Amount{2, Kilogram}},
		{"non multiple stays", 1500, Gram, Amount{1500, Gram}},
		{"multiple of 1000 ml", 3000, Milliliter, Amount{3, Liter}},
		{"fraction of kg", 0.5, Kilogram, Amount{500, Gram}},
		{"fraction truncates", 0.0005, Kilogram, Amount{0, Gram}},
		{"fraction of l", 0.25, Liter, Amount{250, Milliliter}},
		{"one kg stays", 1, Kilogram, Amount{1, Kilogram}},
		{"many kg stays", 1500, Kilogram, Amount{1500, Kilogram}},
		{"zero g stays", 0, Gram, Amount{0, Gram}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.amount, tt.unit)
			assert.Equal(t, tt.want.Unit, got.Unit)
			assert.InDelta(t, tt.want.Value, got.Value, eps)
		})
	}
}

func TestNormalizeNeverCrossesFamilies(t *testing.T) {
	for _, u := range []Unit{Gram, Kilogram, Milliliter, Liter} {
		for _, amount := range []float64{0, 0.3, 1, 999, 1000, 4000, 12345} {
			got := Normalize(amount, u)
			assert.Equal(t, u.Family(), got.Unit.Family(), "%v %s", amount, u)
		}
	}
}

func TestToProductUnit(t *testing.T) {
	kgProduct := Product{Amount: 1, Unit: Kilogram, Protein: 1}

	got, err := ToProductUnit(500, Gram, kgProduct)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, eps)

	got, err = ToProductUnit(2, Kilogram, sampleProduct)
	require.NoError(t, err)
	assert.InDelta(t, 2000, got, eps)

	got, err = ToProductUnit(1.5, Liter, Product{Amount: 250, Unit: Milliliter})
	require.NoError(t, err)
	assert.InDelta(t, 1500, got, eps)
}

func TestToProductUnitSameUnitUnchanged(t *testing.T) {
	for _, u := range []Unit{Gram, Kilogram, Milliliter, Liter} {
		p := Product{Amount: 100, Unit: u}
		for _, amount := range []float64{0, 0.001, 1, 42.5, 1e6} {
			got, err := ToProductUnit(amount, u, p)
			require.NoError(t, err)
			assert.Equal(t, amount, got)
		}
	}
}

func TestToProductUnitIncompatible(t *testing.T) {
	pairs := [][2]Unit{
		{Gram, Milliliter}, {Gram, Liter}, {Kilogram, Milliliter}, {Kilogram, Liter},
		{Milliliter, Gram}, {Milliliter, Kilogram}, {Liter, Gram}, {Liter, Kilogram},
	}
	for _, pair := range pairs {
		for _, amount := range []float64{0, 1, 500} {
			_, err := ToProductUnit(amount, pair[0], Product{Amount: 1, Unit: pair[1]})
			assert.ErrorIs(t, err, ErrIncompatibleUnits, "%s -> %s", pair[0], pair[1])
		}
	}

	_, err := ToProductUnit(500, Milliliter, Product{Amount: 1, Unit: Kilogram})
	assert.True(t, errors.Is(err, ErrIncompatibleUnits))
}

func TestCalculate(t *testing.T) {
	got, err := Calculate(200, Gram, sampleProduct)
	require.NoError(t, err)
	assertNutrients(t, Nutrients{Proteins: 20, Fats: 10, Carbs: 40}, got)
	assert.InDelta(t, 330, got.Kcal(), eps)

	got, err = Calculate(1, Kilogram, sampleProduct)
	require.NoError(t, err)
	assertNutrients(t, Nutrients{Proteins: 100, Fats: 50, Carbs: 200}, got)
}

func TestCalculateLargeReference(t *testing.T) {
	juice := Product{Amount: 1, Unit: Liter, Protein: 5, Fat: 1, Carbons: 100}

	got, err := Calculate(250, Milliliter, juice)
	require.NoError(t, err)
	assertNutrients(t, Nutrients{Proteins: 1.25, Fats: 0.25, Carbs: 25}, got)

	got, err = Calculate(2, Liter, juice)
	require.NoError(t, err)
	assertNutrients(t, Nutrients{Proteins: 10, Fats: 2, Carbs: 200}, got)
}

func TestCalculateIdentityAtReference(t *testing.T) {
	products := []Product{
		sampleProduct,
		{Amount: 1, Unit: Kilogram, Protein: 180, Fat: 90, Carbons: 3},
		{Amount: 330, Unit: Milliliter, Protein: 0, Fat: 0, Carbons: 35},
		{Amount: 0.5, Unit: Liter, Protein: 16, Fat: 18, Carbons: 24},
	}
	for _, p := range products {
		got, err := Calculate(p.Amount, p.Unit, p)
		require.NoError(t, err)
		assertNutrients(t, p.Reference(), got)
	}
}

func TestCalculateLinearity(t *testing.T) {
	for _, unit := range []Unit{Gram, Kilogram} {
		for _, a := range []float64{0, 0.25, 1, 37, 150, 999.5} {
			single, err := Calculate(a, unit, sampleProduct)
			require.NoError(t, err)
			double, err := Calculate(2*a, unit, sampleProduct)
			require.NoError(t, err)
			assertNutrients(t, single.Scale(2), double)
		}
	}
}

func TestCalculateMonotonic(t *testing.T) {
	prev := Nutrients{}
	for a := 0.0; a <= 2000; a += 125 {
		got, err := Calculate(a, Gram, sampleProduct)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Proteins, prev.Proteins)
		assert.GreaterOrEqual(t, got.Kcal(), prev.Kcal())
		prev = got
	}
}

func TestCalculateErrors(t *testing.T) {
	_, err := Calculate(100, Milliliter, sampleProduct)
	assert.ErrorIs(t, err, ErrIncompatibleUnits)

	_, err = Calculate(100, Gram, Product{Amount: 0, Unit: Gram, Protein: 10})
	assert.ErrorIs(t, err, ErrDegenerateProduct)

	_, err = Calculate(100, Gram, Product{Amount: math.NaN(), Unit: Gram})
	assert.ErrorIs(t, err, ErrDegenerateProduct)

	_, err = Calculate(100, Unit("cup"), sampleProduct)
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Nutrients{}, Aggregate(nil))
	assert.Equal(t, Nutrients{}, Aggregate([]MealElement{}))
}

func TestAggregate(t *testing.T) {
	milk := Product{Amount: 1, Unit: Liter, Protein: 32, Fat: 15, Carbons: 47}
	a := MealElement{Product: sampleProduct, Amount: 250}
	b := MealElement{Product: milk, Amount: 0.5}

	got := Aggregate([]MealElement{a, b})
	assertNutrients(t, Nutrients{Proteins: 25 + 16, Fats: 12.5 + 7.5, Carbs: 50 + 23.5}, got)

	reversed := Aggregate([]MealElement{b, a})
	assertNutrients(t, got, reversed)
}

func TestAggregateMatchesCalculate(t *testing.T) {
	elements := []MealElement{
		{Product: sampleProduct, Amount: 80},
		{Product: Product{Amount: 2, Unit: Kilogram, Protein: 40, Fat: 10, Carbons: 300}, Amount: 0.3},
	}

	var want Nutrients
	for _, e := range elements {
		n, err := Calculate(e.Amount, e.Product.Unit, e.Product)
		require.NoError(t, err)
		want = want.Add(n)
	}
	assertNutrients(t, want, Aggregate(elements))
}

func TestAggregateDegenerateProductIsNonFinite(t *testing.T) {
	got := Aggregate([]MealElement{{Product: Product{Amount: 0, Unit: Gram, Protein: 10}, Amount: 5}})
	assert.True(t, math.IsInf(got.Proteins, 1))
	assert.True(t, math.IsNaN(got.Fats))
}

func TestKcal(t *testing.T) {
	assert.Equal(t, 0.0, Nutrients{}.Kcal())
	assert.InDelta(t, 330, Nutrients{Proteins: 20, Fats: 10, Carbs: 40}.Kcal(), eps)
}
