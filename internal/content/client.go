package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/humphreyhhui/LanguageGames/internal/models"
)

// Client talks to the translation content service over HTTP. It generates
// question sets for new sessions and judges free-text answers the exact-match
// short circuit could not settle.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 8 * time.Second},
	}
}

type generateRequest struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type generateResponse struct {
	ServerJudged bool `json:"serverJudged"`
	Questions    []struct {
		Prompt  string   `json:"prompt"`
		Answer  string   `json:"answer"`
		Choices []string `json:"choices"`
	} `json:"questions"`
}

// GenerateQuestionSet requests count questions for the category.
func (c *Client) GenerateQuestionSet(ctx context.Context, category string, count int) (*models.QuestionSet, error) {
	body, err := json.Marshal(generateRequest{Category: category, Count: count})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/questions/generate", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content service returned %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	set := &models.QuestionSet{
		Category:     category,
		ServerJudged: decoded.ServerJudged,
		Questions:    make([]models.Question, 0, len(decoded.Questions)),
	}
	for _, q := range decoded.Questions {
		set.Questions = append(set.Questions, models.Question{
			Prompt:  q.Prompt,
			Answer:  q.Answer,
			Choices: q.Choices,
		})
	}

	if len(set.Questions) == 0 {
		return nil, fmt.Errorf("content service returned empty question set")
	}

	return set, nil
}

type judgeRequest struct {
	Expected  string `json:"expected"`
	Submitted string `json:"submitted"`
	Category  string `json:"category"`
}

type judgeResponse struct {
	Correct bool `json:"correct"`
}

// JudgeAnswer asks the service whether a free-text answer is an acceptable
// translation of the expected one.
func (c *Client) JudgeAnswer(ctx context.Context, category, expected, submitted string) (bool, error) {
	body, err := json.Marshal(judgeRequest{Expected: expected, Submitted: submitted, Category: category})
	if err != nil {
		return false, fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/answers/judge", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("content service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("content service returned %d", resp.StatusCode)
	}

	var decoded judgeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return decoded.Correct, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
