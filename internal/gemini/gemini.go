// Package gemini generates the AI summary and lesson content for an article.
// Generation failures are soft: callers get a "⚠️ Unable to generate..."
// placeholder string instead of an error, so one bad model call never fails
// a pipeline run.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tech2news/technews/internal/logger"
)

const (
	modelName = "gemini-2.0-flash"

	// Input truncation before prompt assembly. Lessons get more room.
	maxSummaryInput = 1500
	maxLessonInput  = 2000
)

const summaryPromptTemplate = `
You are a tech news summarizer. Format the following article into an engaging summary:

📰 Headline: %s

✏ Summary:
Create a 2-3 sentence summary explaining the key points in simple terms.

❗ Why it's Useful:
Explain in 8-9 words why this news matters.

🚀 Key Takeaway:
Provide 3 concise, clear, and actionable learning points using bullets:
• Point 1: Start with a strong verb or insight
• Point 2: Relevant to developers or tech learners
• Point 3: Should be future-looking or reflective

Article content: "%s"

Format the response exactly as shown above, maintaining the emoji and section headers.
`

const lessonPromptTemplate = `
You are an AI educational assistant that transforms news articles into lesson-style educational content.

Transform the following article into an engaging lesson format:

Article Title: %s
Article Content: %s

Create a lesson following this exact format:

📝 Title: [Create a catchy, clear educational title]

📘 Introduction:
[1-2 engaging sentences to hook the reader and explain why this topic matters]

📚 Lesson:
[Break down the article into 3-4 easy-to-understand points with explanations. Use analogies or real-life examples where helpful. Make it educational and interesting, not just a summary.]

✅ What You Learned:
• [Key takeaway 1 - actionable insight]
• [Key takeaway 2 - practical knowledge]
• [Key takeaway 3 - future implications or applications]

Use clear, engaging, and simple language like you're teaching someone new to the topic. Keep the tone educational yet interesting.
`

// Article is the generation input.
type Article struct {
	Title       string
	Description string
	Link        string
}

// Content is the result of GenerateFull. Both fields are always populated,
// with placeholder warnings when generation failed.
type Content struct {
	Summary     string
	Lesson      string
	GeneratedAt time.Time
}

// Client wraps the generative model.
type Client struct {
	client *genai.Client

	// generate is swappable in tests.
	generate func(ctx context.Context, prompt string) (string, error)
}

// NewClient creates a client for the given API key.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{client: client}
	c.generate = c.callModel
	return c, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) callModel(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(1024)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}

// Summarize produces the emoji-sectioned summary text for the article. On
// any failure it returns a placeholder warning string instead of an error.
func (c *Client) Summarize(ctx context.Context, article Article) string {
	if article.Title == "" || article.Description == "" {
		return "⚠️ Unable to generate summary: missing required article data"
	}

	prompt := fmt.Sprintf(summaryPromptTemplate, article.Title, truncate(article.Description, maxSummaryInput))
	text, err := c.generate(ctx, prompt)
	if err != nil {
		logger.Error("summarization failed", "title", article.Title, "error", err)
		return "⚠️ Unable to generate summary: " + err.Error()
	}
	return strings.TrimSpace(text)
}

// GenerateLesson produces the lesson-format text for the article, with the
// same soft-failure behavior as Summarize.
func (c *Client) GenerateLesson(ctx context.Context, article Article) string {
	if article.Title == "" || article.Description == "" {
		return "⚠️ Unable to generate lesson content: missing required article data"
	}

	logger.Debug("generating lesson content", "title", article.Title)
	prompt := fmt.Sprintf(lessonPromptTemplate, article.Title, truncate(article.Description, maxLessonInput))
	text, err := c.generate(ctx, prompt)
	if err != nil {
		logger.Error("lesson generation failed", "title", article.Title, "error", err)
		return "⚠️ Unable to generate lesson content: " + err.Error()
	}
	return strings.TrimSpace(text)
}

// GenerateFull runs summary and lesson generation concurrently. It always
// returns a Content with both fields populated.
func (c *Client) GenerateFull(ctx context.Context, article Article) Content {
	var content Content
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		content.Summary = c.Summarize(ctx, article)
	}()
	go func() {
		defer wg.Done()
		content.Lesson = c.GenerateLesson(ctx, article)
	}()
	wg.Wait()

	content.GeneratedAt = time.Now()
	return content
}

// IsPlaceholder reports whether generated text is a soft-failure warning
// rather than real content.
func IsPlaceholder(text string) bool {
	return strings.HasPrefix(text, "⚠️")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
