// Package ai grades writing submissions through an OpenAI-compatible chat
// completion API
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/engcoach/internal/logger"
	"github.com/example/engcoach/pkg/models"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMissingAPIKey is returned by New without credentials
	ErrMissingAPIKey = errors.New("OpenAI API key is not set")
	// ErrEmptyResponse is returned when the model sends no content
	ErrEmptyResponse = errors.New("AI returned empty response")
)

const (
	defaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second
	maxScore       = 5
)

var levelDescriptions = map[models.Level]string{
	models.Level3:    "中学3年生レベル（junior high school 3rd year）",
	models.LevelPre2: "高校中級程度（high school intermediate）",
	models.Level2:    "高校卒業程度（high school graduate）",
	models.LevelPre1: "大学中級程度（university intermediate）",
	models.Level1:    "大学上級程度（university advanced）",
}

// Config holds the grading endpoint settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Grader represents a client for the grading model
type Grader struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

// New creates a grader for cfg
func New(cfg Config, log *logger.Logger) (*Grader, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Grader{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		log:     log,
	}, nil
}

// Request is one submission to grade. Word count bounds are used only
// when both are positive.
type Request struct {
	Level        models.Level
	PromptType   string
	PromptText   string
	Content      string
	WordCountMin int
	WordCountMax int
}

// Result is the graded submission. Scores are integers in 0..5 and every
// correction in CorrectedText is wrapped in [[...]].
type Result struct {
	VocabularyScore   int    `json:"vocabulary_score"`
	GrammarScore      int    `json:"grammar_score"`
	ContentScore      int    `json:"content_score"`
	OrganizationScore int    `json:"organization_score"`
	InstructionScore  int    `json:"instruction_score"`
	CorrectedText     string `json:"corrected_text"`
	Feedback          string `json:"feedback"`
}

// OverallScore is the mean of the five scores rounded to one decimal
func OverallScore(r Result) float64 {
	sum := r.VocabularyScore + r.GrammarScore + r.ContentScore + r.OrganizationScore + r.InstructionScore
	return math.Round(float64(sum)/5*10) / 10
}

var correctionMarker = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Corrections returns the corrected fragments marked in text, in order
func Corrections(text string) []string {
	matches := correctionMarker.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// NormalizePromptType maps unknown prompt types to essay
func NormalizePromptType(t string) string {
	switch t {
	case models.PromptEmail, models.PromptSummary:
		return t
	}
	return models.PromptEssay
}

// Grade sends the submission to the model and parses its verdict
func (g *Grader) Grade(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.PromptText) == "" {
		return Result{}, errors.New("prompt text is required")
	}
	req.PromptType = NormalizePromptType(req.PromptType)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req.PromptType)},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to grade writing")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Result{}, ErrEmptyResponse
	}

	result, err := parseResult(resp.Choices[0].Message.Content, req.Content)
	if err != nil {
		return Result{}, err
	}
	g.log.Debug("writing graded",
		"level", req.Level,
		"prompt_type", req.PromptType,
		"overall", OverallScore(result),
		"latency_ms", time.Since(start).Milliseconds(),
		"tokens", resp.Usage.TotalTokens)
	return result, nil
}

func parseResult(raw, submitted string) (Result, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Result{}, errors.Wrap(err, "failed to decode grading response")
	}

	result := Result{
		VocabularyScore:   clampScore(parsed["vocabulary_score"]),
		GrammarScore:      clampScore(parsed["grammar_score"]),
		ContentScore:      clampScore(parsed["content_score"]),
		OrganizationScore: clampScore(parsed["organization_score"]),
		InstructionScore:  clampScore(parsed["instruction_score"]),
		CorrectedText:     submitted,
	}
	if s, ok := parsed["corrected_text"].(string); ok {
		result.CorrectedText = s
	}
	if s, ok := parsed["feedback"].(string); ok {
		result.Feedback = s
	}
	return result, nil
}

// clampScore accepts numbers or numeric strings; anything else is 0
func clampScore(v interface{}) int {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		f, _ = strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	if math.IsNaN(f) || math.IsInf(f, -1) {
		return 0
	}
	if math.IsInf(f, 1) {
		return maxScore
	}
	n := int(math.Round(f))
	if n < 0 {
		return 0
	}
	if n > maxScore {
		return maxScore
	}
	return n
}

func systemPrompt(promptType string) string {
	var b strings.Builder
	b.WriteString("You are an expert Eiken (Japanese English proficiency test) writing grader.\n")
	b.WriteString("Grade the student's writing according to the specified level.\n")
	if promptType == models.PromptSummary {
		b.WriteString(`
This is a SUMMARY task (要約). The student read a passage and wrote a summary in 45-55 words.
- content_score: Did they accurately capture the main points from each paragraph? No personal opinion.
- organization_score: Is the summary logically structured and easy to follow?
- instruction_score: 45-55 words, accurate summarization (not opinion essay), covers key points from the original.
`)
	}
	b.WriteString(`
Level criteria:
- 3級: Junior high school 3rd year level. Be encouraging; focus on basic correctness.
- 準2級: High school intermediate. Expect simple but coherent essays.
- 2級: High school graduate. Expect clear structure and appropriate vocabulary.
- 準1級: University intermediate. Expect well-structured arguments with varied vocabulary.
- 1級: University advanced. Expect sophisticated arguments, complex structures, and precise vocabulary.

Score each category 0-5 (5 = excellent, 0 = poor). Be strict but fair for the level.
Provide corrected_text: the student's essay with grammar/spelling fixes only. Do NOT rewrite or change meaning.
WRAP EACH CORRECTED part in double brackets [[...]]. Example: "they may [[spend]] too much" (if you changed "spends" to "spend").
Provide feedback in Japanese: what was good, and specific points to improve.`)
	return b.String()
}

func userPrompt(req Request) string {
	desc, ok := levelDescriptions[req.Level]
	if !ok {
		desc = fmt.Sprintf("%sレベル", req.Level)
	}
	wordRange := "指示に従った語数"
	if req.WordCountMin > 0 && req.WordCountMax > 0 {
		wordRange = fmt.Sprintf("%d〜%d語", req.WordCountMin, req.WordCountMax)
	}

	return fmt.Sprintf(`Level: %s (%s)
Prompt type: %s
Word count target: %s

=== PROMPT / QUESTION ===
%s

=== STUDENT'S ANSWER ===
%s

Grade and return a JSON object with:
- vocabulary_score (0-5)
- grammar_score (0-5)
- content_score (0-5): Did they answer the question appropriately?
- organization_score (0-5): Logical structure, flow
- instruction_score (0-5): Followed instructions (word count, format)
- corrected_text: The student's text with only grammar/spelling corrections, each wrapped in [[...]]
- feedback: Japanese text, 2-4 sentences with specific improvements.`,
		req.Level, desc, req.PromptType, wordRange, req.PromptText, req.Content)
}
