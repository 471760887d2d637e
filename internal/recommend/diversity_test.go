// Deepcue - Music Discovery and Recommendation Engine
// Copyright 2026 Mellow Hen Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mellowhen/deepcue

package recommend

import (
	"context"
	"testing"

	"github.com/mellowhen/deepcue/internal/models"
)

func newTestOptimizer() *DiversityOptimizer {
	engine := NewEngine(DefaultConfig(), newFakeCatalog(), nil, nil, nil)
	return NewDiversityOptimizer(engine)
}

func scored(score float64, track models.Track) models.ScoredTrack {
	return models.ScoredTrack{Track: track, Score: score}
}

func TestMMR(t *testing.T) {
	opt := newTestOptimizer()
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		out := opt.MMR(ctx, nil, 0.7, 10)
		if len(out) != 0 {
			t.Errorf("len = %d, want 0", len(out))
		}
	})

	t.Run("single candidate", func(t *testing.T) {
		out := opt.MMR(ctx, []models.ScoredTrack{
			scored(0.9, makeTrack("a", "ar1", 100, 0.5, 0.5, "rock")),
		}, 0.7, 10)
		if len(out) != 1 || out[0].Track.ID != "a" {
			t.Fatalf("out = %+v, want [a]", out)
		}
	})

	t.Run("lambda 1 is plain relevance order", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.5, makeTrack("low", "ar1", 100, 0.1, 0.1, "rock")),
			scored(0.9, makeTrack("high", "ar2", 100, 0.9, 0.9, "jazz")),
			scored(0.7, makeTrack("mid", "ar3", 100, 0.5, 0.5, "folk")),
		}
		out := opt.MMR(ctx, candidates, 1.0, 3)
		want := []string{"high", "mid", "low"}
		for i, id := range want {
			if out[i].Track.ID != id {
				t.Errorf("out[%d] = %s, want %s", i, out[i].Track.ID, id)
			}
		}
	})

	t.Run("first pick is most relevant", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.6, makeTrack("a", "ar1", 100, 0.5, 0.5, "rock")),
			scored(0.95, makeTrack("b", "ar2", 100, 0.5, 0.5, "rock")),
			scored(0.7, makeTrack("c", "ar3", 100, 0.5, 0.5, "rock")),
		}
		out := opt.MMR(ctx, candidates, 0.3, 3)
		if out[0].Track.ID != "b" {
			t.Errorf("first pick = %s, want b", out[0].Track.ID)
		}
	})

	t.Run("same artist penalized", func(t *testing.T) {
		// Two near-identical cuts by one artist and a weaker track by
		// another. With diversity pressure the other artist's track
		// should rank second.
		candidates := []models.ScoredTrack{
			scored(0.95, makeTrack("a1", "ar1", 100, 0.8, 0.6, "shoegaze")),
			scored(0.90, makeTrack("a2", "ar1", 100, 0.8, 0.6, "shoegaze")),
			scored(0.60, makeTrack("b1", "ar2", 100, 0.2, 0.2, "jazz")),
		}
		out := opt.MMR(ctx, candidates, 0.3, 3)
		if out[0].Track.ID != "a1" {
			t.Fatalf("first pick = %s, want a1", out[0].Track.ID)
		}
		if out[1].Track.ID != "b1" {
			t.Errorf("second pick = %s, want b1 (artist spread)", out[1].Track.ID)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.9, makeTrack("a", "ar1", 100, 0.1, 0.1, "rock")),
			scored(0.8, makeTrack("b", "ar2", 100, 0.5, 0.5, "jazz")),
			scored(0.7, makeTrack("c", "ar3", 100, 0.9, 0.9, "folk")),
		}
		out := opt.MMR(ctx, candidates, 0.7, 2)
		if len(out) != 2 {
			t.Errorf("len = %d, want 2", len(out))
		}
	})

	t.Run("lambda clamped below zero", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.9, makeTrack("a", "ar1", 100, 0.1, 0.1, "rock")),
			scored(0.8, makeTrack("b", "ar2", 100, 0.5, 0.5, "jazz")),
		}
		out := opt.MMR(ctx, candidates, -5, 2)
		if len(out) != 2 {
			t.Errorf("len = %d, want 2", len(out))
		}
	})
}

func TestMMRDiversityPressureMonotonic(t *testing.T) {
	opt := newTestOptimizer()
	ctx := context.Background()

	// Three same-artist cuts with the top scores plus two weaker
	// outliers from disjoint genres. As lambda drops the selected
	// triple can only get more diverse, never less.
	jazz := makeBareTrack("b1", "ar2", 100)
	jazz.Genres = []string{"jazz"}
	ambient := makeBareTrack("c1", "ar3", 100)
	ambient.Genres = []string{"ambient"}
	candidates := []models.ScoredTrack{
		scored(0.95, makeTrack("a1", "ar1", 100, 0.8, 0.6, "shoegaze")),
		scored(0.90, makeTrack("a2", "ar1", 100, 0.8, 0.6, "shoegaze")),
		scored(0.85, makeTrack("a3", "ar1", 100, 0.8, 0.6, "shoegaze")),
		scored(0.60, jazz),
		scored(0.55, ambient),
	}

	prev := -1.0
	for _, lambda := range []float64{1.0, 0.5, 0.1} {
		out := opt.MMR(ctx, candidates, lambda, 3)
		if len(out) != 3 {
			t.Fatalf("lambda %v: len = %d, want 3", lambda, len(out))
		}
		ild := opt.IntraListDiversity(tracksOf(out))
		if ild < prev {
			t.Errorf("lambda %v: ILD %v fell below %v at weaker diversity pressure", lambda, ild, prev)
		}
		prev = ild
	}
}

func TestTrackSimilarity(t *testing.T) {
	opt := newTestOptimizer()

	t.Run("same artist shortcut", func(t *testing.T) {
		a := makeTrack("a", "ar1", 100, 0.1, 0.1, "rock")
		b := makeTrack("b", "ar1", 100, 0.9, 0.9, "jazz")
		if s := opt.trackSimilarity(&a, &b); !almostEqual(s, sameArtistSimilarity) {
			t.Errorf("sim = %v, want %v", s, sameArtistSimilarity)
		}
	})

	t.Run("genre fallback without features", func(t *testing.T) {
		a := makeBareTrack("a", "ar1", 100)
		a.Genres = []string{"rock", "indie"}
		b := makeBareTrack("b", "ar2", 100)
		b.Genres = []string{"rock"}
		if s := opt.trackSimilarity(&a, &b); !almostEqual(s, 0.5) {
			t.Errorf("sim = %v, want jaccard 0.5", s)
		}
	})

	t.Run("nothing to compare", func(t *testing.T) {
		a := makeBareTrack("a", "ar1", 100)
		b := makeBareTrack("b", "ar2", 100)
		if s := opt.trackSimilarity(&a, &b); !almostEqual(s, fallbackSimilarity) {
			t.Errorf("sim = %v, want fallback %v", s, fallbackSimilarity)
		}
	})
}

func TestIntraListDiversity(t *testing.T) {
	opt := newTestOptimizer()

	t.Run("short lists score zero", func(t *testing.T) {
		if ild := opt.IntraListDiversity(nil); ild != 0 {
			t.Errorf("ILD(nil) = %v, want 0", ild)
		}
		one := []models.Track{makeTrack("a", "ar1", 100, 0.5, 0.5)}
		if ild := opt.IntraListDiversity(one); ild != 0 {
			t.Errorf("ILD(one) = %v, want 0", ild)
		}
	})

	t.Run("same artist pairs score low", func(t *testing.T) {
		tracks := []models.Track{
			makeTrack("a", "ar1", 100, 0.5, 0.5, "rock"),
			makeTrack("b", "ar1", 100, 0.5, 0.5, "rock"),
		}
		if ild := opt.IntraListDiversity(tracks); !almostEqual(ild, 1-sameArtistSimilarity) {
			t.Errorf("ILD = %v, want %v", ild, 1-sameArtistSimilarity)
		}
	})

	t.Run("varied list scores higher than uniform list", func(t *testing.T) {
		uniform := []models.Track{
			makeTrack("a", "ar1", 100, 0.5, 0.5, "rock"),
			makeTrack("b", "ar2", 100, 0.5, 0.5, "rock"),
		}
		varied := []models.Track{
			makeTrack("c", "ar3", 100, 0.05, 0.95, "ambient"),
			makeTrack("d", "ar4", 100000, 0.95, 0.05, "metal"),
		}
		if opt.IntraListDiversity(varied) <= opt.IntraListDiversity(uniform) {
			t.Error("varied list should be more diverse than uniform list")
		}
	})
}

func TestGenreCoverage(t *testing.T) {
	opt := newTestOptimizer()

	tests := []struct {
		name   string
		tracks []models.Track
		want   float64
	}{
		{"empty", nil, 0},
		{
			"two genres",
			[]models.Track{
				makeTrack("a", "ar1", 100, 0.5, 0.5, "rock"),
				makeTrack("b", "ar2", 100, 0.5, 0.5, "jazz"),
			},
			0.1,
		},
		{
			"duplicate genres counted once",
			[]models.Track{
				makeTrack("a", "ar1", 100, 0.5, 0.5, "rock"),
				makeTrack("b", "ar2", 100, 0.5, 0.5, "Rock"),
			},
			0.05,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := opt.GenreCoverage(tt.tracks); !almostEqual(got, tt.want) {
				t.Errorf("GenreCoverage = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("capped at one", func(t *testing.T) {
		tracks := make([]models.Track, 30)
		for i := range tracks {
			tracks[i] = makeTrack(string(rune('a'+i)), "ar", 100, 0.5, 0.5, "genre"+string(rune('a'+i)))
		}
		if got := opt.GenreCoverage(tracks); got != 1 {
			t.Errorf("GenreCoverage = %v, want 1", got)
		}
	})
}

func TestArtistDiversity(t *testing.T) {
	opt := newTestOptimizer()

	if got := opt.ArtistDiversity(nil); got != 0 {
		t.Errorf("ArtistDiversity(nil) = %v, want 0", got)
	}

	tracks := []models.Track{
		makeTrack("a", "ar1", 100, 0.5, 0.5),
		makeTrack("b", "ar1", 100, 0.5, 0.5),
		makeTrack("c", "ar2", 100, 0.5, 0.5),
		makeTrack("d", "ar3", 100, 0.5, 0.5),
	}
	if got := opt.ArtistDiversity(tracks); !almostEqual(got, 0.75) {
		t.Errorf("ArtistDiversity = %v, want 0.75", got)
	}
}

func TestFeatureDiversity(t *testing.T) {
	opt := newTestOptimizer()

	t.Run("identical vectors score zero", func(t *testing.T) {
		tracks := []models.Track{
			makeTrack("a", "ar1", 100, 0.5, 0.5),
			makeTrack("b", "ar2", 100, 0.5, 0.5),
		}
		if got := opt.FeatureDiversity(tracks); !almostEqual(got, 0) {
			t.Errorf("FeatureDiversity = %v, want 0", got)
		}
	})

	t.Run("featureless tracks excluded", func(t *testing.T) {
		tracks := []models.Track{
			makeBareTrack("a", "ar1", 100),
			makeTrack("b", "ar2", 100, 0.5, 0.5),
		}
		if got := opt.FeatureDiversity(tracks); got != 0 {
			t.Errorf("FeatureDiversity = %v, want 0 with one usable vector", got)
		}
	})

	t.Run("spread vectors score positive", func(t *testing.T) {
		tracks := []models.Track{
			makeTrack("a", "ar1", 100, 0.1, 0.1),
			makeTrack("b", "ar2", 100, 0.9, 0.9),
		}
		if got := opt.FeatureDiversity(tracks); got <= 0 {
			t.Errorf("FeatureDiversity = %v, want > 0", got)
		}
	})
}

func TestRerankForDiversity(t *testing.T) {
	opt := newTestOptimizer()
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		out, report := opt.RerankForDiversity(ctx, nil, 0.5, 3)
		if len(out) != 0 {
			t.Errorf("len = %d, want 0", len(out))
		}
		if report.Iterations != 0 {
			t.Errorf("iterations = %d, want 0", report.Iterations)
		}
	})

	t.Run("improves or preserves diversity", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.95, makeTrack("a1", "ar1", 100, 0.8, 0.6, "shoegaze")),
			scored(0.90, makeTrack("a2", "ar1", 100, 0.8, 0.6, "shoegaze")),
			scored(0.85, makeTrack("a3", "ar1", 100, 0.8, 0.6, "shoegaze")),
			scored(0.60, makeTrack("b1", "ar2", 100, 0.2, 0.2, "jazz")),
			scored(0.55, makeTrack("c1", "ar3", 100000, 0.1, 0.9, "ambient")),
		}
		inputILD := opt.IntraListDiversity(tracksOf(candidates))

		out, report := opt.RerankForDiversity(ctx, candidates, 0.9, 5)
		if len(out) != len(candidates) {
			t.Fatalf("len = %d, want %d", len(out), len(candidates))
		}
		if report.AchievedILD < inputILD {
			t.Errorf("achieved ILD %v below input ILD %v", report.AchievedILD, inputILD)
		}
		if report.TargetILD != 0.9 {
			t.Errorf("TargetILD = %v, want 0.9", report.TargetILD)
		}
		if report.Iterations < 1 {
			t.Errorf("iterations = %d, want >= 1", report.Iterations)
		}
	})

	t.Run("stops once target met", func(t *testing.T) {
		candidates := []models.ScoredTrack{
			scored(0.9, makeTrack("a", "ar1", 100, 0.05, 0.95, "ambient")),
			scored(0.8, makeTrack("b", "ar2", 100000, 0.95, 0.05, "metal")),
		}
		_, report := opt.RerankForDiversity(ctx, candidates, 0.1, 10)
		if !report.TargetMet {
			t.Fatal("target should be met")
		}
		if report.Iterations > 1 {
			t.Errorf("iterations = %d, want 1", report.Iterations)
		}
	})
}
