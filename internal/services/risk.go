package services

import (
	"math"

	"shojo-terminal/backend-go/internal/models"
)

const unknownRank = 9999

// RiskFromRank is the coarse tier used for trending coins.
func RiskFromRank(rank int) models.RiskLevel {
	switch {
	case rank <= 20:
		return models.RiskLow
	case rank <= 100:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

// ListingRisk grades a market listing by size, rank and 24h volatility.
// Larger ranks and smaller caps never lower the tier; moves above 20% are high.
func ListingRisk(marketCap NullFloat, rank *int, change24h NullFloat) models.RiskLevel {
	risk := models.RiskMedium
	if marketCap.Valid {
		switch {
		case marketCap.Value > 10_000_000_000:
			risk = models.RiskLow
		case marketCap.Value < 100_000_000:
			risk = models.RiskHigh
		}
	}

	if rank != nil {
		switch {
		case *rank <= 20:
			risk = models.RiskLow
		case *rank >= 200:
			if risk == models.RiskLow {
				risk = models.RiskMedium
			} else {
				risk = models.RiskHigh
			}
		}
	}

	volatility := 0.0
	if change24h.Valid && !math.IsNaN(change24h.Value) {
		volatility = math.Abs(change24h.Value)
	}
	if volatility > 20 {
		return models.RiskHigh
	}
	if volatility < 5 && risk == models.RiskHigh {
		return models.RiskMedium
	}
	return risk
}
