package config

import (
	"testing"

	"github.com/Veraticus/pfm-classifier/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	cats := r.Categories()
	require.Len(t, cats, 9)
	assert.Equal(t, "Groceries", cats[0])
	assert.Equal(t, "Other", cats[8])

	for _, c := range cats {
		entry, err := r.Vocabulary(c)
		require.NoError(t, err, c)
		assert.NotEmpty(t, entry.Merchants, c)
		assert.NotEmpty(t, entry.Descriptions, c)
	}

	assert.Equal(t, 2, r.DecimalPlaces())
	assert.Equal(t, int64(42), r.Seed())
	assert.Equal(t, SolverLBFGS, r.Model().Solver)
}

func TestRegistry_AmountSpecFallsBackToDefault(t *testing.T) {
	r := Default()

	assert.Equal(t, AmountSpec{Low: 800, High: 2500, Sign: Income}, r.AmountSpec("Income"))
	assert.Equal(t, AmountSpec{Low: 1, High: 80, Sign: Expense}, r.AmountSpec("Other"))
	assert.Equal(t, AmountSpec{Low: 1, High: 80, Sign: Expense}, r.AmountSpec("Never Heard Of It"))
}

func TestRegistry_VocabularyUnknownCategory(t *testing.T) {
	_, err := Default().Vocabulary("Crypto")
	assert.ErrorIs(t, err, common.ErrUnknownCategory)
}

func TestRegistry_CategoriesAreDeduplicated(t *testing.T) {
	opts := DefaultOptions()
	opts.Categories = append(opts.Categories, "Groceries", "Income")

	r, err := New(opts)
	require.NoError(t, err)
	assert.Len(t, r.Categories(), 9)
}

func TestRegistry_CategoriesReturnsCopy(t *testing.T) {
	r := Default()
	cats := r.Categories()
	cats[0] = "Mutated"
	assert.Equal(t, "Groceries", r.Categories()[0])
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		mutate func(*RegistryOptions)
		name   string
	}{
		{
			name: "inverted amount spec",
			mutate: func(o *RegistryOptions) {
				o.Amounts["Groceries"] = AmountSpec{Low: 120, High: 8, Sign: Expense}
			},
		},
		{
			name:   "negative decimal places",
			mutate: func(o *RegistryOptions) { o.DecimalPlaces = -1 },
		},
		{
			name:   "missing vocabulary",
			mutate: func(o *RegistryOptions) { delete(o.Vocabulary, "Shopping") },
		},
		{
			name: "empty merchants",
			mutate: func(o *RegistryOptions) {
				o.Vocabulary["Shopping"] = VocabularyEntry{Descriptions: []string{"x"}}
			},
		},
		{
			name:   "hour out of range",
			mutate: func(o *RegistryOptions) { o.Time.HourChoices["Transport"] = []int{7, 24} },
		},
		{
			name:   "bad sign",
			mutate: func(o *RegistryOptions) { o.DefaultAmount.Sign = 0 },
		},
		{
			name:   "unknown solver",
			mutate: func(o *RegistryOptions) { o.Model.Solver = "saga" },
		},
		{
			name:   "test size out of range",
			mutate: func(o *RegistryOptions) { o.Model.TestSize = 1 },
		},
		{
			name:   "empty catalog",
			mutate: func(o *RegistryOptions) { o.Categories = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			_, err := New(opts)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestNewAmountSpec(t *testing.T) {
	spec, err := NewAmountSpec(3, 70, Expense)
	require.NoError(t, err)
	assert.Equal(t, 3.0, spec.Low)

	_, err = NewAmountSpec(70, 3, Expense)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestResolveOverrides(t *testing.T) {
	r := Default()

	got, err := r.ResolveOverrides(map[string]int{"other": 50, "Income": 10})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Other": 50, "Income": 10}, got)

	_, err = r.ResolveOverrides(map[string]int{"Crypto": 1})
	assert.ErrorIs(t, err, common.ErrUnknownCategory)
}

func TestLoadRuntime(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	rt, err := LoadRuntime(v)
	require.NoError(t, err)
	assert.Equal(t, "model.json", rt.ModelPath)
	assert.Equal(t, ModelKindLogistic, rt.ModelKind)
	assert.Equal(t, 60, rt.PerCategory)
	assert.Equal(t, map[string]int{"Other": 50}, rt.Overrides)
	assert.Equal(t, 3, rt.DefaultTopK)
	assert.Equal(t, 20, rt.MaxTopK)

	v.Set("model.kind", "forest")
	_, err = LoadRuntime(v)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestLoadRuntime_TLS(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	rt, err := LoadRuntime(v)
	require.NoError(t, err)
	assert.False(t, rt.TLS)

	v.Set("server.tls", true)
	v.Set("server.tls_hosts", []string{"pfm.internal"})
	rt, err = LoadRuntime(v)
	require.NoError(t, err)
	assert.True(t, rt.TLS)
	assert.Equal(t, []string{"pfm.internal"}, rt.TLSHosts)

	v.Set("server.cert_dir", "")
	_, err = LoadRuntime(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestLoadRuntime_OverridesFromFlags(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("training.overrides", []string{"Income=5", "Other=7"})

	rt, err := LoadRuntime(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Income": 5, "Other": 7}, rt.Overrides)
}

func TestParseOverride(t *testing.T) {
	name, n, err := ParseOverride("Dining & Coffee=12")
	require.NoError(t, err)
	assert.Equal(t, "Dining & Coffee", name)
	assert.Equal(t, 12, n)

	for _, bad := range []string{"Other", "=3", "Other=x", "Other=-1"} {
		_, _, err := ParseOverride(bad)
		assert.ErrorIs(t, err, common.ErrInvalidConfig, bad)
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("PFM_TEST_DIR", "/srv/models")

	assert.Equal(t, "/srv/models/model.json", ExpandPath("$PFM_TEST_DIR/model.json"))
	assert.Equal(t, "gs://bucket/$KEEP/model.json", ExpandPath("gs://bucket/$KEEP/model.json"))
	assert.Equal(t, "", ExpandPath(""))
}
