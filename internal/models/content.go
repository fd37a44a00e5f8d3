package models

// Question is a single prompt inside a session's question set. Answer is
// never sent to clients in server-judged mode.
type Question struct {
	Prompt  string   `json:"prompt"`
	Answer  string   `json:"-"`
	Choices []string `json:"choices,omitempty"`
}

// QuestionSet is the content played during one session. ServerJudged sets
// whether answers are submitted for server-side verdicts or scored on the
// client and reported.
type QuestionSet struct {
	Category     string     `json:"category"`
	ServerJudged bool       `json:"serverJudged"`
	Questions    []Question `json:"questions"`
}

// ClientQuestion is the wire shape of a question for server-judged content:
// prompt and choices only.
type ClientQuestion struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
}

// ClientView builds the wire shape of the set. Server-judged sets are
// stripped to prompts and choices; client-judged sets keep their answers so
// the client can score locally.
func (qs *QuestionSet) ClientView() interface{} {
	questions := make([]map[string]interface{}, len(qs.Questions))
	for i, q := range qs.Questions {
		item := map[string]interface{}{"prompt": q.Prompt}
		if len(q.Choices) > 0 {
			item["choices"] = q.Choices
		}
		if !qs.ServerJudged {
			item["answer"] = q.Answer
		}
		questions[i] = item
	}
	return map[string]interface{}{
		"category":     qs.Category,
		"serverJudged": qs.ServerJudged,
		"questions":    questions,
	}
}
