package gamification

import (
	"fmt"
	"math"

	"github.com/physics-daily/backend/internal/models"
)

// Mastery milestone bonuses, awarded once per topic when completion
// first crosses each threshold. The badge is the award guard: crossing
// several thresholds in one quiz grants all of them together.
var masteryMilestones = []struct {
	Pct   int
	Bonus float64
}{
	{50, 20},
	{70, 30},
	{90, 50},
}

const (
	baseXPPerCorrect    = 4   // developing mastery
	masteryXPPerCorrect = 0.5 // completion >= 70%
	explorerBonus       = 10
	highMasteryPct      = 70
)

// CompleteQuiz converts a quiz outcome into an XP award with a
// breakdown, updates topic progress, and feeds the award through the
// XP pipeline.
func (s *Service) CompleteQuiz(userID string, sub models.QuizSubmission) (*models.QuizXPResult, error) {
	if sub.TotalQuestions <= 0 {
		return nil, fmt.Errorf("total_questions must be positive")
	}
	correct := sub.CorrectCount
	if correct < 0 {
		correct = 0
	}
	if correct > sub.TotalQuestions {
		correct = sub.TotalQuestions
	}

	questionIDs := sub.QuestionIDs
	if len(questionIDs) == 0 {
		// Quiz pages don't carry stable question ids; derive positional
		// ones so repeat attempts on a topic map to the same slots.
		questionIDs = make([]string, sub.TotalQuestions)
		for i := range questionIDs {
			questionIDs[i] = fmt.Sprintf("%s-q%d", sub.TopicID, i+1)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	topic, known := s.catalog.Lookup(sub.TopicID)
	if !known {
		// Degraded mode for unknown topics: flat award, no progress
		// tracking, no bonuses.
		result := &models.QuizXPResult{
			XP:           int64(correct * 2),
			Breakdown:    models.XPBreakdown{Base: float64(correct * 2)},
			MasteryLevel: "developing",
		}
		s.addXPLocked(userID, float64(result.XP), models.ReasonQuiz, map[string]interface{}{
			"topic_id": sub.TopicID,
			"unknown":  true,
		})
		return result, nil
	}

	tp := s.store.Topic(userID, sub.TopicID)
	st := s.store.Progress(userID)

	// The first `correct` id slots are the correctly answered ones.
	for i, qid := range questionIDs {
		if i >= correct {
			break
		}
		if !tp.Correct[qid] {
			tp.Correct[qid] = true
			tp.TotalAttempted++
		}
	}

	completion := float64(len(tp.Correct)) / float64(topic.TotalQuestions) * 100
	highMastery := completion >= highMasteryPct

	var total float64
	var breakdown models.XPBreakdown

	if highMastery {
		breakdown.Mastery = float64(correct) * masteryXPPerCorrect
		total += breakdown.Mastery
	} else {
		breakdown.Base = float64(correct) * baseXPPerCorrect
		total += breakdown.Base
	}

	// First-ever correct solve in this topic: explorer bonus, once.
	if tp.FirstSolveDate == nil && correct > 0 {
		now := s.now()
		tp.FirstSolveDate = &now
		breakdown.Explorer = explorerBonus
		total += explorerBonus
		id, label := explorerBadge(sub.TopicID, topic.Name)
		s.grantLocked(userID, st, id, label)
	}

	for _, m := range masteryMilestones {
		if completion < float64(m.Pct) {
			continue
		}
		id, label := masteryBadge(m.Pct, sub.TopicID, topic.Name)
		if s.grantLocked(userID, st, id, label) {
			breakdown.Milestone += m.Bonus
			total += m.Bonus
		}
	}

	if correct == sub.TotalQuestions {
		breakdown.Perfect = math.Max(5, float64(sub.TotalQuestions)*0.5)
		total += breakdown.Perfect
	}

	result := &models.QuizXPResult{
		XP:                   int64(math.Floor(total)),
		Breakdown:            breakdown,
		CompletionPercentage: math.Round(completion*10) / 10,
		MasteryLevel:         masteryLabel(highMastery),
	}

	s.addXPLocked(userID, total, models.ReasonQuiz, map[string]interface{}{
		"topic_id":              sub.TopicID,
		"correct":               correct,
		"total_questions":       sub.TotalQuestions,
		"completion_percentage": result.CompletionPercentage,
		"time_spent_seconds":    sub.TimeSpent,
	})

	return result, nil
}

func masteryLabel(high bool) string {
	if high {
		return "high"
	}
	return "developing"
}
