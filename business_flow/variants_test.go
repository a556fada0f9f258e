package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
)

func TestAssignVariant(t *testing.T) {
	variants := []models.ABVariant{
		{Name: "A", Percentage: 30, Content: "variant a"},
		{Name: "B", Percentage: 30, Content: "variant b"},
	}

	tests := []struct {
		name string
		draw float64
		want *string
	}{
		{"zero draw picks first", 0, strPtr("A")},
		{"inside first share", 15, strPtr("A")},
		{"first boundary", 30, strPtr("A")},
		{"inside second share", 45, strPtr("B")},
		{"second boundary", 60, strPtr("B")},
		{"past all shares is holdout", 60.01, nil},
		{"top of range is holdout", 99.9, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignVariant(tt.draw, variants)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.Name)
		})
	}
}

func TestAssignVariantFullCoverage(t *testing.T) {
	variants := []models.ABVariant{
		{Name: "A", Percentage: 50},
		{Name: "B", Percentage: 50},
	}

	// Every draw in [0, 100) lands on a variant when shares sum to 100
	got := AssignVariant(99.999, variants)
	require.NotNil(t, got)
	assert.Equal(t, "B", got.Name)
}

func TestUniformDrawStaysInRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		draw := UniformDraw()
		if draw < 0 || draw >= utils.VariantDrawUpperBound {
			t.Fatalf("draw %v outside [0, %v)", draw, utils.VariantDrawUpperBound)
		}
	}
}

func TestAssignVariantDistributionConverges(t *testing.T) {
	const n = 200000

	assign := func(variants []models.ABVariant) (map[string]int, int) {
		counts := make(map[string]int)
		holdout := 0
		for i := 0; i < n; i++ {
			if v := AssignVariant(UniformDraw(), variants); v != nil {
				counts[v.Name]++
			} else {
				holdout++
			}
		}
		return counts, holdout
	}

	t.Run("full split", func(t *testing.T) {
		counts, holdout := assign([]models.ABVariant{
			{Name: "A", Percentage: 50},
			{Name: "B", Percentage: 50},
		})
		assert.Zero(t, holdout)
		assert.InDelta(t, 0.50, float64(counts["A"])/n, 0.01)
		assert.InDelta(t, 0.50, float64(counts["B"])/n, 0.01)
	})

	t.Run("partial split leaves holdout share", func(t *testing.T) {
		counts, holdout := assign([]models.ABVariant{
			{Name: "A", Percentage: 30},
			{Name: "B", Percentage: 30},
		})
		assert.InDelta(t, 0.30, float64(counts["A"])/n, 0.01)
		assert.InDelta(t, 0.30, float64(counts["B"])/n, 0.01)
		assert.InDelta(t, 0.40, float64(holdout)/n, 0.01)
	})
}

func TestAssignVariantNoVariants(t *testing.T) {
	assert.Nil(t, AssignVariant(10, nil))
	assert.Nil(t, AssignVariant(10, []models.ABVariant{}))
}

func TestValidateVariants(t *testing.T) {
	tests := []struct {
		name     string
		variants []models.ABVariant
		wantErr  error
	}{
		{
			name: "valid split",
			variants: []models.ABVariant{
				{Name: "A", Percentage: 50},
				{Name: "B", Percentage: 50},
			},
		},
		{
			name: "partial split leaves holdout",
			variants: []models.ABVariant{
				{Name: "A", Percentage: 20},
				{Name: "B", Percentage: 20},
			},
		},
		{
			name: "missing name",
			variants: []models.ABVariant{
				{Name: "", Percentage: 50},
			},
			wantErr: ErrVariantNameRequired,
		},
		{
			name: "zero percentage",
			variants: []models.ABVariant{
				{Name: "A", Percentage: 0},
			},
			wantErr: ErrVariantPercentageInvalid,
		},
		{
			name: "percentage above 100",
			variants: []models.ABVariant{
				{Name: "A", Percentage: 101},
			},
			wantErr: ErrVariantPercentageInvalid,
		},
		{
			name: "sum above 100",
			variants: []models.ABVariant{
				{Name: "A", Percentage: 60},
				{Name: "B", Percentage: 60},
			},
			wantErr: ErrVariantPercentageSum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariants(tt.variants)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
