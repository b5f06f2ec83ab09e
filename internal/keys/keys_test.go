// ABOUTME: Tests for storage key generation and variant parsing
// ABOUTME: Covers normalisation, prefix stripping, determinism and blank component ids

package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		variant   Variant
		panel     string
		component string
		want      string
	}{
		{"dotted panel camel component", VariantA, "stats.leveling.tweaks", "trainingMethod", "a_stats_leveling_tweaks_training_method"},
		{"variant b", VariantB, "stats.leveling.tweaks", "trainingMethod", "b_stats_leveling_tweaks_training_method"},
		{"whitespace runs", VariantA, "  Combat   Panel ", "food type", "a_combat_panel_food_type"},
		{"punctuation runs", VariantA, "combat--panel//main", "eat@%HP", "a_combat_panel_main_eat_hp"},
		{"acronym", VariantA, "combat", "HPThreshold", "a_combat_hp_threshold"},
		{"strips tag prefix", VariantA, "a.stats", "level", "a_stats_level"},
		{"strips alias prefix", VariantA, "edition_a.stats", "level", "a_stats_level"},
		{"strips other variant prefix", VariantA, "b.stats", "level", "a_stats_level"},
		{"panel is only a prefix", VariantB, "edition_b", "level", "b_level"},
		{"empty panel", VariantA, "", "level", "a_level"},
		{"unknown variant normalised", Variant("Beta Test"), "stats", "level", "beta_test_stats_level"},
		{"prefix needs separator", VariantA, "attack", "style", "a_attack_style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.variant, tt.panel, tt.component)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	inputs := []struct {
		variant   Variant
		panel     string
		component string
	}{
		{VariantA, "stats.leveling.tweaks", "trainingMethod"},
		{VariantB, "Combat Panel", "Special Attack %"},
		{Variant("x"), "a.b.c", "D"},
	}

	for _, in := range inputs {
		first, err := Generate(in.variant, in.panel, in.component)
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			again, err := Generate(in.variant, in.panel, in.component)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestGenerate_BlankComponent(t *testing.T) {
	variants := append(Known(), Variant("custom"), Variant(""))
	for _, v := range variants {
		for _, component := range []string{"", "   ", "\t\n", "---", "%%"} {
			key, err := Generate(v, "stats", component)
			assert.ErrorIs(t, err, ErrBlankComponent, "variant %q component %q", v, component)
			assert.Empty(t, key)
		}
	}
}

func TestMustGenerate_PanicsOnBlank(t *testing.T) {
	assert.Panics(t, func() { MustGenerate(VariantA, "stats", " ") })
	assert.NotPanics(t, func() { MustGenerate(VariantA, "stats", "ok") })
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "training_method", Normalize("trainingMethod"))
	assert.Equal(t, "hp_threshold", Normalize("HPThreshold"))
	assert.Equal(t, "level2_boost", Normalize("level2Boost"))
	assert.Equal(t, "", Normalize("  "))
	assert.Equal(t, "a_b", Normalize("__A__B__"))
}

func TestParseVariant(t *testing.T) {
	v, ok := ParseVariant("A")
	require.True(t, ok)
	assert.Equal(t, VariantA, v)

	v, ok = ParseVariant("edition_b")
	require.True(t, ok)
	assert.Equal(t, VariantB, v)

	_, ok = ParseVariant("nope")
	assert.False(t, ok)
}

func TestKnown(t *testing.T) {
	assert.Equal(t, []Variant{VariantA, VariantB}, Known())
	assert.True(t, VariantA.IsKnown())
	assert.False(t, Variant("z").IsKnown())
}
