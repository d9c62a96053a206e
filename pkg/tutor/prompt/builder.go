package prompt

import (
	"fmt"
	"strings"
)

// AnalysisMarker heads every struggle-analysis request
const AnalysisMarker = "STRUGGLE_TOPIC_ANALYSIS"

const (
	contextOpen   = "<course_material>"
	contextClose  = "</course_material>"
	questionOpen  = "<student_question>"
	questionClose = "</student_question>"
)

// Greeting is the canned opening bot message of every new chat
func Greeting(courseName string) string {
	return fmt.Sprintf("Hi! I'm your AI tutor for %s. What would you like to work on today?", courseName)
}

// SystemPrompt seeds a tutoring conversation with the course objectives and
// the topics the student has struggled with before.
func SystemPrompt(courseName string, objectives, struggleTopics []string) string {
	var prompt strings.Builder

	prompt.WriteString("<role>\n")
	fmt.Fprintf(&prompt, "You are a patient teaching assistant for the course %s.\n", courseName)
	prompt.WriteString("Guide the student toward understanding instead of handing out final answers.\n")
	prompt.WriteString("Ask short checking questions and build on what the student already knows.\n")
	prompt.WriteString("</role>\n\n")

	if len(objectives) > 0 {
		prompt.WriteString("<learning_objectives>\n")
		for _, o := range objectives {
			fmt.Fprintf(&prompt, "- %s\n", o)
		}
		prompt.WriteString("</learning_objectives>\n\n")
	}

	if len(struggleTopics) > 0 {
		prompt.WriteString("<known_struggles>\n")
		prompt.WriteString("The student has previously found these topics difficult. Give extra care and examples when they come up:\n")
		for _, t := range struggleTopics {
			fmt.Fprintf(&prompt, "- %s\n", t)
		}
		prompt.WriteString("</known_struggles>\n\n")
	}

	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. When course material is provided, ground your explanation in it\n")
	prompt.WriteString("2. If the material does not cover the question, say so and answer from general knowledge\n")
	prompt.WriteString("3. Keep answers focused and well organized\n")
	prompt.WriteString("</guidelines>")

	return prompt.String()
}

// WithContext wraps a question in the retrieval template, context first
func WithContext(question, courseContext string) string {
	var prompt strings.Builder
	prompt.WriteString(contextOpen + "\n")
	prompt.WriteString(courseContext)
	prompt.WriteString("\n" + contextClose + "\n\n")
	prompt.WriteString("Use the course material above where it is relevant to answer the student.\n\n")
	prompt.WriteString(questionOpen + "\n")
	prompt.WriteString(question)
	prompt.WriteString("\n" + questionClose)
	return prompt.String()
}

// StripContext recovers the student's words from a prompt built by WithContext.
// Text that was never wrapped is returned unchanged.
func StripContext(text string) string {
	if !strings.HasPrefix(text, contextOpen) {
		return text
	}
	start := strings.LastIndex(text, questionOpen)
	end := strings.LastIndex(text, questionClose)
	if start < 0 || end < start {
		return text
	}
	return strings.TrimSpace(text[start+len(questionOpen) : end])
}
