package model

import (
	"fmt"
	"strings"
	"time"
)

// Decision is the reviewer's verdict on a single row.
type Decision int

// Review decisions.
const (
	DecisionConfirm Decision = iota
	DecisionModify
	DecisionNeedsHumanReview
)

func (d Decision) String() string {
	switch d {
	case DecisionConfirm:
		return "CONFIRM"
	case DecisionModify:
		return "MODIFY"
	case DecisionNeedsHumanReview:
		return "REVIEW"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// ParseDecision accepts the reviewer's wire labels, case-insensitively.
func ParseDecision(s string) (Decision, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONFIRM":
		return DecisionConfirm, true
	case "MODIFY":
		return DecisionModify, true
	case "REVIEW", "NEEDS_HUMAN_REVIEW":
		return DecisionNeedsHumanReview, true
	default:
		return DecisionConfirm, false
	}
}

// ReviewDecision is one parsed verdict, correlated by transaction ID.
type ReviewDecision struct {
	TransactionID   string
	FinalCategory   string
	Reason          string
	FinalConfidence float64
	Decision        Decision
}

// FinalStatus records how a row's final category was settled.
type FinalStatus int

// Final statuses.
const (
	StatusAutoConfirmed FinalStatus = iota
	StatusAIConfirmed
	StatusAIModified
	StatusNeedsHumanReview
)

var statusLabels = map[FinalStatus]string{
	StatusAutoConfirmed:    "자동확정",
	StatusAIConfirmed:      "AI확정",
	StatusAIModified:       "AI수정",
	StatusNeedsHumanReview: "수동검토필요",
}

func (s FinalStatus) String() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return fmt.Sprintf("FinalStatus(%d)", int(s))
}

// FinalRow is a classified row after the review stage.
type FinalRow struct {
	FinalCategory   string
	Reason          string
	Row             Row
	FinalConfidence float64
	Status          FinalStatus
}

// FeedbackEntry is a human-confirmed category for a raw merchant.
type FeedbackEntry struct {
	RawMerchant       string
	ConfirmedCategory string
}

// LoggedFeedback is a feedback entry as persisted in the append-only log.
type LoggedFeedback struct {
	RecordedAt        time.Time
	RawMerchant       string
	Merchant          string
	ConfirmedCategory string
	ID                int64
}
