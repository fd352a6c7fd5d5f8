package services

import (
	"testing"

	"shojo-terminal/backend-go/internal/models"
)

func intPtr(v int) *int { return &v }

func TestRiskFromRankIsMonotonic(t *testing.T) {
	prev := RiskFromRank(1)
	for rank := 2; rank <= unknownRank; rank++ {
		cur := RiskFromRank(rank)
		if cur.Rank() < prev.Rank() {
			t.Fatalf("rank %d lowered tier from %s to %s", rank, prev, cur)
		}
		prev = cur
	}
	if RiskFromRank(20) != models.RiskLow || RiskFromRank(21) != models.RiskMedium || RiskFromRank(101) != models.RiskHigh {
		t.Fatalf("unexpected tier boundaries")
	}
}

func TestListingRiskMonotonicInRank(t *testing.T) {
	for _, change := range []float64{3, 10} {
		prev := models.RiskLow
		for rank := 1; rank <= 400; rank++ {
			cur := ListingRisk(Float(500_000_000), intPtr(rank), Float(change))
			if cur.Rank() < prev.Rank() {
				t.Fatalf("change %v: rank %d lowered tier from %s to %s", change, rank, prev, cur)
			}
			prev = cur
		}
	}
}

func TestListingRiskMonotonicInMarketCap(t *testing.T) {
	caps := []float64{5e11, 2e10, 9e9, 5e8, 1e8, 9e7, 1e6}
	prev := models.RiskLow
	for _, mc := range caps {
		cur := ListingRisk(Float(mc), intPtr(50), Float(10))
		if cur.Rank() < prev.Rank() {
			t.Fatalf("market cap %v lowered tier from %s to %s", mc, prev, cur)
		}
		prev = cur
	}
}

func TestListingRiskVolatility(t *testing.T) {
	if got := ListingRisk(Float(5e11), intPtr(1), Float(25)); got != models.RiskHigh {
		t.Fatalf("expected >20%% move to force high, got %s", got)
	}
	if got := ListingRisk(Float(5e11), intPtr(1), Float(-21)); got != models.RiskHigh {
		t.Fatalf("expected large drop to force high, got %s", got)
	}
	if got := ListingRisk(Float(5e7), intPtr(300), Float(1)); got != models.RiskMedium {
		t.Fatalf("expected calm small cap to be medium, got %s", got)
	}
	if got := ListingRisk(NullFloat{}, nil, NullFloat{}); got != models.RiskMedium {
		t.Fatalf("expected unknown listing to be medium, got %s", got)
	}
}
