package services

import (
	"fmt"
	"strings"
)

const jsonOnlyRule = "CRITICAL: Return ONLY a valid JSON value. No preamble, no markdown, no backticks.\n"

const escapingRule = "All strings must be valid JSON: write every backslash as \\\\ and every double quote inside a string as \\\".\n"

func buildRoadmapPrompt(topic string) string {
	var b strings.Builder

	b.WriteString("You are a world-class curriculum designer. Create a high-level learning roadmap for the topic below.\n\n")
	b.WriteString(jsonOnlyRule)
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Topic: %q\n\n", topic))
	b.WriteString("Break the topic into a logical sequence of 5-8 modules that take a learner from foundations to advanced applications.\n")
	b.WriteString("Every module title must be unique.\n")

	b.WriteString(`
JSON schema:
{"title": "string (overall course title)", "roadmap": [{"title": "string", "description": "one sentence on what the module covers"}]}
`)

	return b.String()
}

func buildModuleDetailPrompt(title, description string) string {
	var b strings.Builder

	b.WriteString("You are a world-class university professor. Write an in-depth lesson for a single course module.\n\n")
	b.WriteString(jsonOnlyRule)
	b.WriteString(escapingRule)
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Module: %q\n", title))
	if description != "" {
		b.WriteString(fmt.Sprintf("Module description: %q\n", description))
	}

	b.WriteString(`
Rules:
- detailedNotes: 3-5 plain-text paragraphs of 150-200 words each, read in sequence
- The first paragraph defines the foundational concept; later paragraphs add examples, analogies and real-world applications
- Explain why, not only what
- No markdown (no asterisks, no headings)
- deepDiveTopics: 3-4 sub-topics mentioned in the notes that deserve further study
- flashcards: 3-5 cards, each an object with a "front" (question or term) and a "back" (concise answer)

JSON schema:
{"title": "string", "detailedNotes": ["string"], "deepDiveTopics": ["string"], "flashcards": [{"front": "string", "back": "string"}]}
`)

	return b.String()
}

func buildDeepDivePrompt(originalText, subTopic string) string {
	var b strings.Builder

	b.WriteString("You are an expert academic tutor. A student reading the text below wants a deeper explanation of one sub-topic.\n\n")
	b.WriteString(jsonOnlyRule)
	b.WriteString(escapingRule)
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Sub-topic: %q\n", subTopic))
	b.WriteString("Write a focused 300-400 word explanation that expands on the text without repeating it.\n")

	b.WriteString(`
JSON schema:
{"deeperExplanation": "string"}
`)

	b.WriteString("\n---TEXT---\n")
	b.WriteString(originalText)
	b.WriteString("\n---END---\n")

	return b.String()
}

func buildQuizPrompt(lessonTopic string, questionCount int) string {
	var b strings.Builder

	b.WriteString("You are an expert educational assessor. Generate a practice quiz on the lesson topic below.\n\n")
	b.WriteString(jsonOnlyRule)
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Lesson topic: %q\n", lessonTopic))
	b.WriteString(fmt.Sprintf("Generate exactly %d multiple-choice questions.\n", questionCount))

	b.WriteString(`
Return a JSON array. JSON schema per question:
{"type": "MCQ", "question": "string", "options": ["string", "string", "string", "string"], "correctAnswer": "string (one of the options, verbatim)"}

Every question has exactly 4 options.
`)

	return b.String()
}

func buildSearchAnswerPrompt(contextNotes, question string) string {
	var b strings.Builder

	b.WriteString("You are a friendly, patient tutor. A student reading a lesson has a follow-up question.\n\n")
	b.WriteString(jsonOnlyRule)
	b.WriteString(escapingRule)
	b.WriteString("\n")

	b.WriteString(`Rules:
- Answer using ONLY the lesson context below
- Use simple language and an analogy if it helps, as if to a complete beginner
- Answer in 2-4 sentences
- If the context does not contain the answer, say politely that it is outside the scope of this lesson and suggest what to study next

JSON schema:
{"answer": "string"}
`)

	b.WriteString("\n---LESSON CONTEXT---\n")
	b.WriteString(contextNotes)
	b.WriteString("\n---END---\n\n")
	b.WriteString(fmt.Sprintf("Student question: %q\n", question))

	return b.String()
}
