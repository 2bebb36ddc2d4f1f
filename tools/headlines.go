package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/nvaldez/news-agent-go/tools/base"
)

// NewsClient is the authenticated request capability the news tools need.
// Satisfied by *newsapi.Client.
type NewsClient interface {
	GetJSON(ctx context.Context, url string, v interface{}) error
}

// HeadlinesParams are the parameters for the get_headlines tool
type HeadlinesParams struct {
	Query string `json:"query" schema:"required" description:"Query string using news search syntax. Can be simple keywords or complex boolean expressions."`
}

// HeadlinesTool searches news headlines using the news API query syntax
type HeadlinesTool struct {
	base.BaseTool
	client  NewsClient
	baseURL string
}

const headlinesDescription = `Search for news articles using the news service's advanced query syntax. Returns a simplified list of matching stories.

The query language supports boolean operators (AND, OR, NOT), explicit free text in quotes, language selection ("inflation" and L:EN), instrument codes (MSFT.O), searchIn tokens ("Reports" and searchIn:HeadlineOnly), date ranges (MRG last 5 days) and parenthesised groups (Korea and (USA or China)).

Returns a JSON array of story objects with:
- story_id: unique identifier for the story (use with get_news_story for full details)
- headline: the headline/title of the news article`

// NewHeadlinesTool creates the headline search tool over the given client
func NewHeadlinesTool(client NewsClient, baseURL string) *HeadlinesTool {
	return &HeadlinesTool{
		BaseTool: base.BaseTool{
			ToolName: "get_headlines",
			ToolDesc: headlinesDescription,
		},
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Parameters returns the parameters struct
func (t *HeadlinesTool) Parameters() interface{} {
	return &HeadlinesParams{}
}

// headlinesEnvelope mirrors the nested external response shape.
type headlinesEnvelope struct {
	Data []struct {
		StoryID  string `json:"storyId"`
		NewsItem struct {
			ItemMeta struct {
				Title []struct {
					Value string `json:"$"`
				} `json:"title"`
			} `json:"itemMeta"`
		} `json:"newsItem"`
	} `json:"data"`
}

// SimpleStory is the flattened search result fed back to the model.
type SimpleStory struct {
	StoryID  string `json:"story_id"`
	Headline string `json:"headline"`
}

// Execute searches headlines and returns a flattened JSON array. Network
// and parse failures become textual results the model can reason about.
func (t *HeadlinesTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var args HeadlinesParams
	if err := json.Unmarshal(params, &args); err != nil {
		return "", NewToolError("INVALID_PARAMS", "Failed to parse parameters").
			WithDetail("error", err.Error())
	}

	query := strings.TrimSpace(args.Query)
	if query == "" {
		return "", NewToolError("VALIDATION_FAILED", "Query cannot be empty")
	}

	searchURL := fmt.Sprintf("%s/data/news/v1/headlines?query=%s", t.baseURL, url.QueryEscape(query))

	var envelope headlinesEnvelope
	if err := t.client.GetJSON(ctx, searchURL, &envelope); err != nil {
		return fmt.Sprintf("Error fetching news: %v", err), nil
	}

	stories := make([]SimpleStory, 0, len(envelope.Data))
	for _, story := range envelope.Data {
		simplified := SimpleStory{StoryID: story.StoryID}
		if titles := story.NewsItem.ItemMeta.Title; len(titles) > 0 {
			simplified.Headline = titles[0].Value
		}
		stories = append(stories, simplified)
	}

	out, err := json.Marshal(stories)
	if err != nil {
		return fmt.Sprintf("Error fetching news: %v", err), nil
	}
	return string(out), nil
}
