package analysis

import (
	"fmt"
	"strings"

	"github.com/okian/interviewer/internal/domain/model"
)

const promptTemplate = `Analyze the following job interview transcript and extract key information about the candidate.

Position being interviewed for: %s

Interview Transcript:
%s
Please analyze the candidate's responses and provide the following information in a structured format:

1. Candidate's full name (if mentioned)
2. Interest level in the position (Scale: Low/Medium/High) - based on enthusiasm, questions asked, and engagement
3. Readiness for the role (Scale: Not Ready/Somewhat Ready/Ready/Very Ready) - based on experience and skills mentioned
4. Experience level (Junior/Mid-level/Senior) - based on years of experience and complexity of projects mentioned
5. Technical skills mentioned (list)
6. Soft skills demonstrated (list)
7. Key strengths (paragraph summary)
8. Areas for improvement (paragraph summary)
9. Overall assessment and recommendation (paragraph summary)
10. Notable quotes or responses from the candidate

Please respond in valid JSON format only, using these exact keys:
{
    "candidate_name": "string",
    "interest_level": "string",
    "readiness": "string",
    "experience_level": "string",
    "technical_skills": ["array", "of", "strings"],
    "soft_skills": ["array", "of", "strings"],
    "key_strengths": "string",
    "areas_for_improvement": "string",
    "overall_assessment": "string",
    "notable_quotes": ["array", "of", "strings"]
}
`

// RenderTranscript renders one "<Speaker>: <text>" line per utterance in
// stored order. Interrupted turns with no text are skipped. The result is
// empty when nothing was said.
func RenderTranscript(utterances []model.Utterance) string {
	var b strings.Builder
	for i := range utterances {
		u := &utterances[i]
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		b.WriteString(u.Role.String())
		b.WriteString(": ")
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String()
}

// BuildPrompt embeds the job description and rendered transcript in the
// fixed instruction template.
func BuildPrompt(jobDescription, transcript string) string {
	return fmt.Sprintf(promptTemplate, strings.TrimSpace(jobDescription), transcript)
}
