package content

import (
	"context"
	"fmt"
	"sort"

	"apeBeacon/domain"
	"apeBeacon/pkg/logger"
)

// ContentRepository contract interface
type ContentRepository interface {
	FindContent(ctx context.Context, customerID string, slots []string) ([]domain.Content, error)
}

type Weights struct {
	// weight of the customer assigned score, normalised to [0, 1]
	Offline float64
	// weight of the per-visitor affinity hash
	Visitor float64
}

const (
	defaultWOffline = 0.7
	defaultWVisitor = 0.3
)

func DefaultWeights() Weights {
	return Weights{Offline: defaultWOffline, Visitor: defaultWVisitor}
}

// RankedSelector picks the best registered candidate per slot. Scores are
// deterministic: the same visitor asking for the same slots gets the same
// content.
type RankedSelector struct {
	repo        ContentRepository
	eligChecker EligibilityChecker
	weights     Weights
}

func NewRankedSelector(repo ContentRepository, eligChecker EligibilityChecker, weights Weights) *RankedSelector {
	if eligChecker == nil {
		eligChecker = NoopEligibilityChecker{}
	}
	if weights.Offline == 0 && weights.Visitor == 0 {
		weights = DefaultWeights()
	}

	return &RankedSelector{
		repo:        repo,
		eligChecker: eligChecker,
		weights:     weights,
	}
}

type scored struct {
	content domain.Content
	score   float64
}

// Select returns at most one item per slot. The item id is the slot id so
// the page can address the placeholder it fills.
func (s *RankedSelector) Select(ctx context.Context, visitor domain.Visitor, slotIDs []string) ([]domain.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if len(slotIDs) == 0 {
		return []domain.ContentItem{}, nil
	}

	candidates, err := s.repo.FindContent(ctx, visitor.CustomerID, slotIDs)
	if err != nil {
		return nil, fmt.Errorf("load content candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.ContentItem{}, nil
	}

	// normalize offline score
	maxScore := 0.0
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	out := make([]domain.ContentItem, 0, len(slotIDs))
	for _, slot := range slotIDs {
		best, ok := s.bestForSlot(ctx, visitor, slot, candidates, maxScore)
		if !ok {
			continue
		}
		out = append(out, domain.ContentItem{
			ID:      slot,
			Content: best.Body,
			Styles:  best.Styles,
		})
	}

	return out, nil
}

func (s *RankedSelector) bestForSlot(
	ctx context.Context,
	visitor domain.Visitor,
	slot string,
	candidates []domain.Content,
	maxScore float64,
) (domain.Content, bool) {

	scoredList := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if !c.MatchesSlot(slot) {
			continue
		}

		ok, err := s.eligChecker.IsEligible(ctx, visitor, c, slot)
		if err != nil {
			logger.Warn("Eligibility check failed", "content_id", c.ID, "slot", slot, "error", err)
			continue
		}
		if !ok {
			continue
		}

		final := s.weights.Offline*(c.Score/maxScore) +
			s.weights.Visitor*visitorAffinity(visitor.ID, slot, c.ID)

		scoredList = append(scoredList, scored{content: c, score: final})
	}

	if len(scoredList) == 0 {
		return domain.Content{}, false
	}

	sort.Slice(scoredList, func(i, j int) bool {
		if scoredList[i].score == scoredList[j].score {
			return scoredList[i].content.ID < scoredList[j].content.ID
		}
		return scoredList[i].score > scoredList[j].score
	})

	return scoredList[0].content, true
}
