package models

import "testing"

func TestLevelForSpend(t *testing.T) {
	tests := []struct {
		spend float64
		want  string
	}{
		{0, LevelBronze},
		{9999.99, LevelBronze},
		{10000, LevelSilver},
		{19999, LevelSilver},
		{20000, LevelGold},
		{30000, LevelPlatinum},
		{49999.99, LevelPlatinum},
		{50000, LevelPremium},
		{1000000, LevelPremium},
	}

	for _, tt := range tests {
		if got := LevelForSpend(tt.spend); got != tt.want {
			t.Errorf("LevelForSpend(%v) = %q, want %q", tt.spend, got, tt.want)
		}
	}
}

func TestLevelPercent(t *testing.T) {
	tests := []struct {
		level string
		want  float64
	}{
		{LevelBronze, 2.5},
		{LevelSilver, 5},
		{LevelGold, 7.5},
		{LevelPlatinum, 10},
		{LevelPremium, 15},
		{"garbage", 2.5},
	}

	for _, tt := range tests {
		if got := LevelPercent(tt.level); got != tt.want {
			t.Errorf("LevelPercent(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLevelRankOrdering(t *testing.T) {
	levels := []string{LevelBronze, LevelSilver, LevelGold, LevelPlatinum, LevelPremium}
	for i := 1; i < len(levels); i++ {
		if LevelRank(levels[i]) <= LevelRank(levels[i-1]) {
			t.Errorf("LevelRank(%q) should exceed LevelRank(%q)", levels[i], levels[i-1])
		}
	}
}

func TestIsValidLevel(t *testing.T) {
	if !IsValidLevel(LevelGold) {
		t.Error("gold should be valid")
	}
	if IsValidLevel("diamond") {
		t.Error("diamond should not be valid")
	}
}
