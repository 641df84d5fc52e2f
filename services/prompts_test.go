package services

import (
	"strings"
	"testing"

	"anglehub/models"
)

func TestAngleGenerationPromptContainsInputs(t *testing.T) {
	prompt := AngleGenerationPrompt("A standing desk with memory presets")
	if !strings.Contains(prompt, "A standing desk with memory presets") {
		t.Error("Prompt missing the product description")
	}
	if !strings.Contains(prompt, `1. Angle: "Your compelling headline/angle here"`) {
		t.Error("Prompt missing the output format the extractor relies on")
	}
}

func TestEvaluationPromptContainsInputs(t *testing.T) {
	prompt := EvaluationPrompt("The Desk Your Back Has Been Begging For", "A standing desk")
	for _, fragment := range []string{
		"The Desk Your Back Has Been Begging For",
		"A standing desk",
		"Overall Rating",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("Prompt missing %q", fragment)
		}
	}
}

func TestPostEvaluationAnglePromptNumbersInputs(t *testing.T) {
	prompt := PostEvaluationAnglePrompt(
		[]string{"First idea", "Second idea"},
		[]string{"First evaluation"},
		"A standing desk")
	for _, fragment := range []string{
		"1. First idea",
		"2. Second idea",
		"Idea 1:\nFirst evaluation",
		"A standing desk",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("Prompt missing %q", fragment)
		}
	}
}

func TestContinueChatContextWithoutIdeas(t *testing.T) {
	context := ContinueChatContext("A standing desk", nil)
	if !strings.Contains(context, "No angles have been generated or evaluated yet.") {
		t.Error("Expected the empty-state line")
	}
	if !strings.Contains(context, "A standing desk") {
		t.Error("Context missing the product description")
	}
}

func TestContinueChatContextListsIdeasWithScores(t *testing.T) {
	score := 7.5
	context := ContinueChatContext("A standing desk", []models.Idea{
		{Content: "First angle", Evaluations: []models.Evaluation{
			{OverallScore: &score, Notes: "Strong promise"},
		}},
		{Content: "Second angle"},
	})
	for _, fragment := range []string{
		`1. "First angle" (score: 7.5/10)`,
		"Evaluation: Strong promise",
		`2. "Second angle"`,
	} {
		if !strings.Contains(context, fragment) {
			t.Errorf("Context missing %q", fragment)
		}
	}
}
