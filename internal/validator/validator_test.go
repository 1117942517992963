package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

func TestValidateFlow(t *testing.T) {
	// Scenario A: start -> a -> choice -> (b | END_CONVERSATION | external link)
	valid := []domain.Record{
		{ID: "start", Type: domain.TypeMessage, IsFirst: true, NextQuestionID: "a"},
		{ID: "a", Type: domain.TypeMessage, NextQuestionID: "choice"},
		{ID: "choice", Type: domain.TypeChoice, Options: []domain.RecordOption{
			{Label: "More", ActionType: domain.ActionNextQuestion, NextQuestionID: "b"},
			{Label: "Stop", ActionType: domain.ActionNextQuestion, NextQuestionID: domain.EndConversation},
			{Label: "Docs", ActionType: domain.ActionExternalLink, ActionValue: "https://example.com"},
		}},
		{ID: "b", Type: domain.TypeEnd},
	}
	if err := ValidateFlow(valid); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}

	// Scenario B: broken link and an orphan
	broken := []domain.Record{
		{ID: "start", Type: domain.TypeMessage, IsFirst: true, NextQuestionID: "ghost_node"},
		{ID: "orphan", Type: domain.TypeEnd},
	}
	err := ValidateFlow(broken)
	if err == nil {
		t.Fatal("Scenario B (Broken) should have failed")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
	if !strings.Contains(err.Error(), "Missing node: 'ghost_node'") {
		t.Errorf("Scenario B error missing broken link: %v", err)
	}
	if !strings.Contains(err.Error(), "Unreachable node: 'orphan'") {
		t.Errorf("Scenario B error missing orphan: %v", err)
	}
}

func TestValidateFlow_NoStart(t *testing.T) {
	if err := ValidateFlow(nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty flow: expected ErrValidation, got %v", err)
	}

	records := []domain.Record{{ID: "a", Type: domain.TypeMessage}}
	if err := ValidateFlow(records); err == nil || !strings.Contains(err.Error(), "marked first") {
		t.Errorf("expected missing first error, got %v", err)
	}
}
