package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nvaldez/news-agent-go/tools/base"
)

// imagePlaceholder replaces binary payloads in story content; base64
// image data is never forwarded to the model.
const imagePlaceholder = "Image content (binary data not included)"

// StoryParams are the parameters for the get_news_story tool
type StoryParams struct {
	StoryID string `json:"story_id" schema:"required" description:"The unique story identifier, e.g. 'urn:newsml:reuters.com:20250610:nL1N3SE0D8'. Get this from the story_id field returned by get_headlines."`
}

// StoryTool fetches the full detail of a single news story
type StoryTool struct {
	base.BaseTool
	client  NewsClient
	baseURL string
}

const storyDescription = `Retrieve detailed information about a specific news story using its unique identifier.

Use this after finding stories with get_headlines to get full details. Returns a JSON object with:
- story_id: the unique identifier
- headline: full headline/title of the article
- publication_date: ISO timestamp when the story was published
- urgency: news urgency level (1=highest, 5=lowest priority)
- content_type: type of content (text/html, image/jpeg, etc.)
- content: main content (for images, binary data is not included)
- source: information source code (e.g. NS:RTRS)

Note: some stories may be images, videos, or other media formats rather than text articles.`

// NewStoryTool creates the story detail tool over the given client
func NewStoryTool(client NewsClient, baseURL string) *StoryTool {
	return &StoryTool{
		BaseTool: base.BaseTool{
			ToolName: "get_news_story",
			ToolDesc: storyDescription,
		},
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Parameters returns the parameters struct
func (t *StoryTool) Parameters() interface{} {
	return &StoryParams{}
}

// storyEnvelope mirrors the nested external story shape. Every field is
// optional; missing pieces become empty strings rather than failures.
type storyEnvelope struct {
	NewsItem struct {
		ContentMeta struct {
			Headline []struct {
				Value string `json:"$"`
			} `json:"headline"`
			Urgency struct {
				Value json.Number `json:"$"`
			} `json:"urgency"`
			InfoSource []struct {
				QCode string `json:"_qcode"`
			} `json:"infoSource"`
		} `json:"contentMeta"`
		ItemMeta struct {
			VersionCreated struct {
				Value string `json:"$"`
			} `json:"versionCreated"`
		} `json:"itemMeta"`
		ContentSet struct {
			InlineData []struct {
				ContentType string `json:"_contenttype"`
				Value       string `json:"$"`
			} `json:"inlineData"`
		} `json:"contentSet"`
	} `json:"newsItem"`
}

// StoryDetail is the flattened story representation fed back to the model.
type StoryDetail struct {
	StoryID         string `json:"story_id"`
	Headline        string `json:"headline"`
	PublicationDate string `json:"publication_date"`
	Urgency         string `json:"urgency"`
	ContentType     string `json:"content_type"`
	Content         string `json:"content"`
	Source          string `json:"source"`
}

// Execute fetches one story and returns its flattened JSON form. Network
// and parse failures become textual results the model can reason about.
func (t *StoryTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var args StoryParams
	if err := json.Unmarshal(params, &args); err != nil {
		return "", NewToolError("INVALID_PARAMS", "Failed to parse parameters").
			WithDetail("error", err.Error())
	}

	storyID := strings.TrimSpace(args.StoryID)
	if storyID == "" {
		return "", NewToolError("VALIDATION_FAILED", "story_id cannot be empty")
	}

	newsURL := fmt.Sprintf("%s/data/news/v1/stories/%s", t.baseURL, storyID)

	var envelope storyEnvelope
	if err := t.client.GetJSON(ctx, newsURL, &envelope); err != nil {
		return fmt.Sprintf("Error fetching news: %v", err), nil
	}

	detail := StoryDetail{StoryID: storyID}

	item := envelope.NewsItem
	if headlines := item.ContentMeta.Headline; len(headlines) > 0 {
		detail.Headline = headlines[0].Value
	}
	detail.PublicationDate = item.ItemMeta.VersionCreated.Value
	detail.Urgency = item.ContentMeta.Urgency.Value.String()
	if sources := item.ContentMeta.InfoSource; len(sources) > 0 {
		detail.Source = sources[0].QCode
	}
	if inline := item.ContentSet.InlineData; len(inline) > 0 {
		detail.ContentType = inline[0].ContentType
		if strings.Contains(detail.ContentType, "image") {
			detail.Content = imagePlaceholder
		} else {
			detail.Content = inline[0].Value
		}
	}

	out, err := json.Marshal(detail)
	if err != nil {
		return fmt.Sprintf("Error fetching news: %v", err), nil
	}
	return string(out), nil
}
