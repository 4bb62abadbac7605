package analysts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeScope/internal/domain/models"
)

var positiveTerms = []string{
	"beat", "beats", "surge", "record", "upgrade", "growth", "strong",
	"outperform", "rally", "profit", "expands", "raises guidance",
}

var negativeTerms = []string{
	"miss", "misses", "plunge", "downgrade", "lawsuit", "recall", "weak",
	"layoff", "cuts", "fraud", "probe", "falls", "warning", "bankruptcy",
}

// SentimentAnalyst scores collected news coverage.
type SentimentAnalyst struct{}

func NewSentimentAnalyst() *SentimentAnalyst { return &SentimentAnalyst{} }

func (a *SentimentAnalyst) Name() models.AgentName { return models.AgentSentiment }

func (a *SentimentAnalyst) Analyze(ctx context.Context, data *models.CollectedData) (*models.AgentReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data.News) == 0 {
		return nil, fmt.Errorf("sentiment: no news collected")
	}

	findings := &models.SentimentFindings{ArticleCount: len(data.News)}
	var best float64
	for _, art := range data.News {
		s := scoreText(art.Headline + " " + art.Summary)
		switch {
		case s > 0:
			findings.PositiveCount++
		case s < 0:
			findings.NegativeCount++
		}
		if abs(s) > abs(best) {
			best = s
			findings.TopHeadline = art.Headline
		}
	}
	findings.Score = float64(findings.PositiveCount-findings.NegativeCount) / float64(findings.ArticleCount)

	lean := models.LeanNeutral
	if findings.Score > 0.15 {
		lean = models.LeanBullish
	} else if findings.Score < -0.15 {
		lean = models.LeanBearish
	}

	// Confidence scales with coverage and how one-sided it is.
	coverage := float64(findings.ArticleCount) / 20.0
	if coverage > 1 {
		coverage = 1
	}
	confidence := 0.3 + 0.4*abs(findings.Score) + 0.3*coverage

	return &models.AgentReport{
		Agent:      models.AgentSentiment,
		Lean:       lean,
		Confidence: clamp01(confidence),
		Summary: fmt.Sprintf("sentiment %.2f over %d articles (%d positive, %d negative)",
			findings.Score, findings.ArticleCount, findings.PositiveCount, findings.NegativeCount),
		CreatedAt: time.Now().UTC(),
		Sentiment: findings,
	}, nil
}

func scoreText(text string) float64 {
	t := strings.ToLower(text)
	score := 0.0
	for _, w := range positiveTerms {
		if strings.Contains(t, w) {
			score++
		}
	}
	for _, w := range negativeTerms {
		if strings.Contains(t, w) {
			score--
		}
	}
	return score
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
