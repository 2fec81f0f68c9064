package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LegType identifies one bet type within a prediction
type LegType string

const (
	LegMoneyline LegType = "moneyline"
	LegSpread    LegType = "spread"
	LegTotal     LegType = "total"
)

// Tier is a coarse low/medium/high classification
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// PredictionLeg represents one bet type's pick within a prediction
type PredictionLeg struct {
	Type          LegType          `json:"type" validate:"required,oneof=moneyline spread total"`
	Pick          string           `json:"pick" validate:"required"`
	Line          *decimal.Decimal `json:"line,omitempty"` // spread/total only
	Confidence    float64          `json:"confidence" validate:"gte=0,lte=100"`
	ExpectedValue float64          `json:"expected_value"` // may be negative
	Reasoning     string           `json:"reasoning"`
}

// ClampConfidence forces the confidence into [0,100]
func (l *PredictionLeg) ClampConfidence() {
	if l.Confidence < 0 {
		l.Confidence = 0
	}
	if l.Confidence > 100 {
		l.Confidence = 100
	}
}

// Analysis represents the overall analysis block attached to a prediction
type Analysis struct {
	KeyFactors      []string `json:"key_factors,omitempty"`
	InjurySummary   string   `json:"injury_summary,omitempty"`
	WeatherSummary  string   `json:"weather_summary,omitempty"`
	MarketSentiment string   `json:"market_sentiment,omitempty"` // backing, fading, neutral
	ValueTier       Tier     `json:"value_tier"`
	RiskTier        Tier     `json:"risk_tier"`
}

// ModelScore represents one consensus model's contribution
type ModelScore struct {
	Model  string  `json:"model"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Prediction aggregates the three legs for one game plus analysis metadata
type Prediction struct {
	ID          uuid.UUID      `json:"id" validate:"required"`
	GameID      string         `json:"game_id" validate:"required"`
	Sport       string         `json:"sport" validate:"required"`
	HomeTeam    string         `json:"home_team"`
	AwayTeam    string         `json:"away_team"`
	Moneyline   *PredictionLeg `json:"moneyline" validate:"required"`
	Spread      *PredictionLeg `json:"spread,omitempty"`
	Total       *PredictionLeg `json:"total,omitempty"`
	Analysis    Analysis       `json:"analysis"`
	ModelScores []ModelScore   `json:"model_scores,omitempty"`
	Consensus   float64        `json:"consensus"`
	GeneratedAt time.Time      `json:"generated_at" validate:"required"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Legs returns the non-nil legs in moneyline, spread, total order
func (p *Prediction) Legs() []*PredictionLeg {
	var legs []*PredictionLeg
	for _, l := range []*PredictionLeg{p.Moneyline, p.Spread, p.Total} {
		if l != nil {
			legs = append(legs, l)
		}
	}
	return legs
}

// ScaleConfidence multiplies every leg's confidence by the given factor
// and re-clamps into [0,100]
func (p *Prediction) ScaleConfidence(factor float64) {
	for _, l := range p.Legs() {
		l.Confidence *= factor
		l.ClampConfidence()
	}
}

// CapConfidence limits every leg's confidence to at most max
func (p *Prediction) CapConfidence(max float64) {
	for _, l := range p.Legs() {
		if l.Confidence > max {
			l.Confidence = max
		}
	}
}
