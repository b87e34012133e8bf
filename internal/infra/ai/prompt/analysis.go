package prompt

import (
	"strings"
	"text/template"
	"unicode/utf8"
)

// DefaultMaxChars bounds how much document text is embedded in the prompt.
const DefaultMaxChars = 15000

var analysisTmpl = template.Must(template.New("analysis").Parse(`
Please analyze this regulatory warning letter or notice for internal audit purposes.

Provide a structured analysis in JSON format with the following sections:

1. document_type: Type of regulatory document (warning letter, notice, citation, etc.)
2. regulatory_body: Which agency issued this (FDA, OSHA, EPA, etc.)
3. severity_level: High/Medium/Low based on language and consequences mentioned
4. key_violations: List of main violations or issues identified
5. compliance_areas: Specific regulatory areas affected (GMP, safety, environmental, etc.)
6. deadlines: Any response or corrective action deadlines mentioned
7. potential_penalties: Financial penalties or other consequences mentioned
8. audit_focus_areas: Specific areas internal audit should prioritize based on this notice
9. recommended_actions: Immediate and long-term actions to address issues
10. risk_assessment: Overall risk level and potential business impact
11. similar_patterns: Any patterns that might indicate systemic issues
12. executive_summary: 2-3 sentence summary for leadership

Document text:
{{.}}

Respond only with valid JSON.
`))

// Truncate returns the first maxChars characters of text. maxChars <= 0
// disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	n := 0
	for i := range text {
		if n == maxChars {
			return text[:i]
		}
		n++
	}
	return text
}

// CharCount counts characters the same way Truncate does.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// BuildAnalysisPrompt embeds at most maxChars characters of text into the
// compliance analysis instruction.
func BuildAnalysisPrompt(text string, maxChars int) string {
	var b strings.Builder
	// Executing a parsed template into a strings.Builder with a string
	// argument cannot fail.
	_ = analysisTmpl.Execute(&b, Truncate(text, maxChars))
	return b.String()
}
