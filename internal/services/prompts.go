package services

import (
	"fmt"

	"study-ai/internal/models"
)

type promptTemplate struct {
	system      string
	instruction string
	maxTokens   int
}

// The instructions pin the line-prefix formats read back by the parser package.
var promptTemplates = map[models.ArtifactKind]promptTemplate{
	models.ArtifactSummary: {
		system:      "You are a helpful assistant that creates concise, well-structured summaries.",
		instruction: "Create a comprehensive but concise summary of the following text. Include key points, main concepts, and important details:",
		maxTokens:   800,
	},
	models.ArtifactNotes: {
		system:      "You are a helpful assistant that creates detailed study notes.",
		instruction: "Create detailed study notes from the following text. Organize with clear headings, bullet points, and key concepts:",
		maxTokens:   1000,
	},
	models.ArtifactFlashcards: {
		system:      "You are a helpful assistant that creates flashcards for studying.",
		instruction: "Create 10 flashcards from the following text. Format each as 'Q: [question]\nA: [answer]\n---\n':",
		maxTokens:   1200,
	},
	models.ArtifactMCQ: {
		system: "You are a helpful assistant that creates multiple choice questions with explanations.",
		instruction: "Create 5 multiple choice questions based on this text. For each question, provide:\n" +
			"- The question\n- Four options (A-D)\n- The correct answer\n- A brief explanation\n\n" +
			"Separate questions with a blank line. Format:\n" +
			"Q1: [question]\nA) [option]\nB) [option]\nC) [option]\nD) [option]\nCorrect: [letter]\nExplanation: [explanation]",
		maxTokens: 1500,
	},
	models.ArtifactFillBlanks: {
		system: "You are a helpful assistant that creates fill-in-the-blank questions.",
		instruction: "Create 5 fill-in-the-blank questions from this text. Separate questions with a blank line. Format each as:\n" +
			"Q: [question with ___ for blanks]\nA: [answer]\nExplanation: [brief explanation]",
		maxTokens: 1000,
	},
	models.ArtifactTrueFalse: {
		system: "You are a helpful assistant that creates true/false questions.",
		instruction: "Create 5 true/false questions from this text. Separate questions with a blank line. Format each as:\n" +
			"Q: [statement]\nA: [True/False]\nExplanation: [explanation]",
		maxTokens: 1000,
	},
	models.ArtifactQA: {
		system: "You are a helpful assistant that creates question-answer pairs.",
		instruction: "Create 5 detailed question-answer pairs from this text. Separate pairs with a blank line. Format each as:\n" +
			"Q: [question]\nA: [detailed answer]",
		maxTokens: 1500,
	},
}

func promptFor(kind models.ArtifactKind, text string) (promptTemplate, string, error) {
	tmpl, ok := promptTemplates[kind]
	if !ok {
		return promptTemplate{}, "", fmt.Errorf("no prompt for artifact %q", kind)
	}
	return tmpl, tmpl.instruction + "\n\n" + text, nil
}
