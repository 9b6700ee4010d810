package selection

import (
	"math"
	"testing"

	"modelhub/internal/core"
)

func priced(id string, tier core.Tier, in, out float64) core.Entry {
	return core.Entry{
		ID:       id,
		Provider: "p",
		Tier:     tier,
		Pricing:  &core.Pricing{InputPer1M: in, OutputPer1M: out},
	}
}

func findScored(t *testing.T, scored []core.ScoredCandidate, id string) core.ScoredCandidate {
	t.Helper()
	for _, sc := range scored {
		if sc.Entry.ID == id {
			return sc
		}
	}
	t.Fatalf("candidate %s not found", id)
	return core.ScoredCandidate{}
}

func TestScore_CostNormalization(t *testing.T) {
	candidates := []core.Entry{
		priced("cheap", core.TierEfficient, 0.5, 1.5), // avg 1
		priced("mid", core.TierEfficient, 5, 5),       // avg 5
		priced("dear", core.TierEfficient, 10, 8),     // avg 9
	}

	scored := Score(candidates, core.Criteria{})

	if got := findScored(t, scored, "cheap").Metrics[core.MetricCost]; got != 1 {
		t.Errorf("cheapest cost score = %f, want 1", got)
	}
	if got := findScored(t, scored, "dear").Metrics[core.MetricCost]; got != 0 {
		t.Errorf("dearest cost score = %f, want 0", got)
	}
	if got := findScored(t, scored, "mid").Metrics[core.MetricCost]; got != 0.5 {
		t.Errorf("middle cost score = %f, want 0.5", got)
	}
}

func TestScore_UnknownPricingScoresWorst(t *testing.T) {
	candidates := []core.Entry{
		priced("known", core.TierEfficient, 1, 1),
		{ID: "mystery", Provider: "p", Tier: core.TierEfficient},
	}

	scored := Score(candidates, core.Criteria{})
	if got := findScored(t, scored, "mystery").Metrics[core.MetricCost]; got != 0 {
		t.Errorf("unknown pricing cost score = %f, want 0", got)
	}
}

func TestScore_AllEqualCostsScoreOne(t *testing.T) {
	candidates := []core.Entry{
		priced("a", core.TierEfficient, 2, 2),
		priced("b", core.TierEfficient, 2, 2),
	}
	scored := Score(candidates, core.Criteria{})
	for _, sc := range scored {
		if sc.Metrics[core.MetricCost] != 1 {
			t.Errorf("%s cost = %f, want 1 when all prices equal", sc.Entry.ID, sc.Metrics[core.MetricCost])
		}
	}
}

func TestScore_SpeedFromTierAndHint(t *testing.T) {
	candidates := []core.Entry{
		{ID: "flag", Provider: "p", Tier: core.TierFlagship},
		{ID: "eff", Provider: "p", Tier: core.TierEfficient},
		{ID: "hinted", Provider: "p", Tier: core.TierFlagship,
			Metadata: map[string]string{core.MetadataSpeedKey: "0.95"}},
		{ID: "untiered", Provider: "p"},
	}

	scored := Score(candidates, core.Criteria{})

	if got := findScored(t, scored, "eff").Metrics[core.MetricSpeed]; got != 1.0 {
		t.Errorf("efficient speed = %f, want 1.0", got)
	}
	if got := findScored(t, scored, "flag").Metrics[core.MetricSpeed]; got != 0.5 {
		t.Errorf("flagship speed = %f, want 0.5", got)
	}
	// A metadata hint overrides the tier proxy
	if got := findScored(t, scored, "hinted").Metrics[core.MetricSpeed]; got != 0.95 {
		t.Errorf("hinted speed = %f, want 0.95", got)
	}
	if got := findScored(t, scored, "untiered").Metrics[core.MetricSpeed]; got != defaultSpeed {
		t.Errorf("untiered speed = %f, want %f", got, defaultSpeed)
	}
}

func TestScore_QualityWithOptionalBonus(t *testing.T) {
	candidates := []core.Entry{
		{ID: "plain", Provider: "p", Tier: core.TierEfficient,
			Capabilities: core.NewCapabilitySet(core.CapabilityChat)},
		{ID: "rich", Provider: "p", Tier: core.TierEfficient,
			Capabilities: core.NewCapabilitySet(core.CapabilityChat, core.CapabilityVision, core.CapabilityReasoning)},
	}
	crit := core.Criteria{
		Optional: core.NewCapabilitySet(core.CapabilityVision, core.CapabilityReasoning),
	}

	scored := Score(candidates, crit)

	plain := findScored(t, scored, "plain").Metrics[core.MetricQuality]
	rich := findScored(t, scored, "rich").Metrics[core.MetricQuality]
	if plain != 0.6 {
		t.Errorf("plain quality = %f, want 0.6", plain)
	}
	if math.Abs(rich-0.8) > 1e-12 {
		t.Errorf("rich quality = %f, want 0.8 (0.6 + 2 bonuses)", rich)
	}
}

func TestScore_QualityCappedAtOne(t *testing.T) {
	candidates := []core.Entry{
		{ID: "flag", Provider: "p", Tier: core.TierFlagship,
			Capabilities: core.NewCapabilitySet(core.CapabilityVision, core.CapabilityReasoning)},
	}
	crit := core.Criteria{
		Optional: core.NewCapabilitySet(core.CapabilityVision, core.CapabilityReasoning),
	}

	scored := Score(candidates, crit)
	if got := scored[0].Metrics[core.MetricQuality]; got != 1 {
		t.Errorf("quality = %f, want capped at 1", got)
	}
}

func TestScore_CompositeRespectsWeights(t *testing.T) {
	candidates := []core.Entry{
		priced("cheap-slow", core.TierFlagship, 1, 1),   // cost 1, speed 0.5
		priced("dear-fast", core.TierEfficient, 10, 10), // cost 0, speed 1.0
	}

	costHeavy := Score(candidates, core.Criteria{Weights: map[string]float64{core.MetricCost: 1}})
	Rank(costHeavy)
	if costHeavy[0].Entry.ID != "cheap-slow" {
		t.Errorf("cost-weighted winner = %s, want cheap-slow", costHeavy[0].Entry.ID)
	}

	speedHeavy := Score(candidates, core.Criteria{Weights: map[string]float64{core.MetricSpeed: 1}})
	Rank(speedHeavy)
	if speedHeavy[0].Entry.ID != "dear-fast" {
		t.Errorf("speed-weighted winner = %s, want dear-fast", speedHeavy[0].Entry.ID)
	}
}

func TestScore_ZeroWeightMetricIgnored(t *testing.T) {
	candidates := []core.Entry{priced("a", core.TierFlagship, 1, 1)}

	scored := Score(candidates, core.Criteria{
		Weights: map[string]float64{core.MetricQuality: 2, core.MetricSpeed: 0},
	})
	// quality 1.0 * weight 2; speed contributes nothing at weight 0
	if scored[0].Score != 2 {
		t.Errorf("composite = %f, want 2", scored[0].Score)
	}
}

func TestRank_TieBreakByTierThenID(t *testing.T) {
	// All metrics identical except tier; equal composite with no weights.
	scored := []core.ScoredCandidate{
		{Entry: core.Entry{ID: "b", Tier: core.TierEfficient}, Score: 0},
		{Entry: core.Entry{ID: "a", Tier: core.TierEfficient}, Score: 0},
		{Entry: core.Entry{ID: "z", Tier: core.TierFlagship}, Score: 0},
	}
	Rank(scored)

	want := []string{"z", "a", "b"}
	for i, w := range want {
		if scored[i].Entry.ID != w {
			t.Fatalf("rank[%d] = %s, want %s (tier first, then id)", i, scored[i].Entry.ID, w)
		}
	}
}

func TestRank_ScoresWithinEpsilonAreTies(t *testing.T) {
	scored := []core.ScoredCandidate{
		{Entry: core.Entry{ID: "b"}, Score: 0.5 + Epsilon/2},
		{Entry: core.Entry{ID: "a"}, Score: 0.5},
	}
	Rank(scored)

	if scored[0].Entry.ID != "a" {
		t.Errorf("winner = %s, want a (epsilon tie broken by id)", scored[0].Entry.ID)
	}
}

func TestRank_Deterministic(t *testing.T) {
	build := func() []core.ScoredCandidate {
		candidates := []core.Entry{
			priced("m1", core.TierFlagship, 2, 4),
			priced("m2", core.TierEfficient, 1, 1),
			priced("m3", core.TierExperimental, 0.5, 0.5),
		}
		scored := Score(candidates, core.Criteria{
			Weights: map[string]float64{core.MetricCost: 1, core.MetricQuality: 1},
		})
		Rank(scored)
		return scored
	}

	first := build()
	for n := 0; n < 10; n++ {
		again := build()
		for i := range first {
			if first[i].Entry.ID != again[i].Entry.ID {
				t.Fatalf("ranking not deterministic: %s vs %s at %d",
					first[i].Entry.ID, again[i].Entry.ID, i)
			}
		}
	}
}
