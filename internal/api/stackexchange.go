package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-querystring/query"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// DefaultPageSize is the largest page the Stack Exchange API serves
const DefaultPageSize = 100

// quotaWarnThreshold triggers a warning when the daily quota runs low
const quotaWarnThreshold = 100

// RawOwner is the shallow user object embedded in questions and answers
type RawOwner struct {
	AccountID   *int64 `json:"account_id"`
	Reputation  *int64 `json:"reputation"`
	UserID      *int64 `json:"user_id"`
	UserType    string `json:"user_type"`
	DisplayName string `json:"display_name"`
	Link        string `json:"link"`
}

// RawAnswer is an answer as delivered by the API
type RawAnswer struct {
	Owner        *RawOwner `json:"owner"`
	AnswerID     int64     `json:"answer_id"`
	QuestionID   int64     `json:"question_id"`
	IsAccepted   *bool     `json:"is_accepted"`
	Score        *int64    `json:"score"`
	CreationDate *int64    `json:"creation_date"`
}

// RawQuestion is a question as delivered by the API
type RawQuestion struct {
	Owner            *RawOwner   `json:"owner"`
	Tags             []string    `json:"tags"`
	Answers          []RawAnswer `json:"answers"`
	IsAnswered       *bool       `json:"is_answered"`
	ViewCount        *int64      `json:"view_count"`
	AcceptedAnswerID *int64      `json:"accepted_answer_id"`
	AnswerCount      *int64      `json:"answer_count"`
	Score            *int64      `json:"score"`
	CreationDate     *int64      `json:"creation_date"`
	QuestionID       int64       `json:"question_id"`
	Link             string      `json:"link"`
	Title            string      `json:"title"`
	Body             string      `json:"body"`
}

// envelope is the common wrapper object around every API response
type envelope[T any] struct {
	Items          []T    `json:"items"`
	HasMore        bool   `json:"has_more"`
	QuotaMax       int    `json:"quota_max"`
	QuotaRemaining int    `json:"quota_remaining"`
	Backoff        int    `json:"backoff"`
	ErrorID        int    `json:"error_id"`
	ErrorName      string `json:"error_name"`
	ErrorMessage   string `json:"error_message"`
}

// QuestionsPage is one page of the question listing
type QuestionsPage struct {
	Items          []RawQuestion
	HasMore        bool
	QuotaRemaining int
	Backoff        time.Duration
}

// listOptions are the query parameters shared by the list endpoints
type listOptions struct {
	Order       string `url:"order"`
	Sort        string `url:"sort"`
	Site        string `url:"site"`
	Filter      string `url:"filter,omitempty"`
	Tagged      string `url:"tagged,omitempty"`
	PageSize    int    `url:"pagesize,omitempty"`
	Page        int    `url:"page,omitempty"`
	Key         string `url:"key,omitempty"`
	AccessToken string `url:"access_token,omitempty"`
}

// ClientConfig configures a Client. A zero AccessTokenExpiry means the
// token never expires.
type ClientConfig struct {
	BaseURL           string
	Site              string
	Filter            string
	Tagged            string
	Key               string
	AccessToken       string
	AccessTokenExpiry time.Time
	Timeout           time.Duration
}

// Client represents a client for the Stack Exchange API
type Client struct {
	http   *resty.Client
	site   string
	filter string
	tagged string
	key    string
	tokens oauth2.TokenSource
	log    zerolog.Logger
}

// NewClient creates a new Stack Exchange API client
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}

	var tokens oauth2.TokenSource
	if cfg.AccessToken != "" {
		// Stack Exchange reads the token from the query string rather than
		// the Authorization header, so the source is consulted per request.
		tokens = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			Expiry:      cfg.AccessTokenExpiry,
		})
	}

	return &Client{
		http:   httpClient,
		site:   cfg.Site,
		filter: cfg.Filter,
		tagged: cfg.Tagged,
		key:    cfg.Key,
		tokens: tokens,
		log:    log,
	}
}

func (c *Client) baseOptions() (listOptions, error) {
	opts := listOptions{
		Order: "desc",
		Sort:  "activity",
		Site:  c.site,
		Key:   c.key,
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return opts, fmt.Errorf("failed to obtain access token: %w", err)
		}
		if !tok.Valid() {
			return opts, ErrTokenExpired
		}
		opts.AccessToken = tok.AccessToken
	}
	return opts, nil
}

// GetQuestionsPage gets one page of the question listing
func (c *Client) GetQuestionsPage(ctx context.Context, page, pageSize int) (*QuestionsPage, error) {
	opts, err := c.baseOptions()
	if err != nil {
		return nil, err
	}
	opts.Filter = c.filter
	opts.Tagged = c.tagged
	opts.PageSize = pageSize
	opts.Page = page

	env, err := getList[RawQuestion](ctx, c, "/questions", opts)
	if err != nil {
		return nil, err
	}

	return &QuestionsPage{
		Items:          env.Items,
		HasMore:        env.HasMore,
		QuotaRemaining: env.QuotaRemaining,
		Backoff:        time.Duration(env.Backoff) * time.Second,
	}, nil
}

// GetAnswers gets the answers of one question
func (c *Client) GetAnswers(ctx context.Context, questionID int64) ([]RawAnswer, error) {
	opts, err := c.baseOptions()
	if err != nil {
		return nil, err
	}
	opts.PageSize = DefaultPageSize

	env, err := getList[RawAnswer](ctx, c, fmt.Sprintf("/questions/%d/answers", questionID), opts)
	if err != nil {
		return nil, err
	}
	return env.Items, nil
}

// getList performs a GET against a list endpoint and classifies failures
func getList[T any](ctx context.Context, c *Client, path string, opts listOptions) (*envelope[T], error) {
	values, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query for %s: %w", path, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(values).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", path, err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(resp.Body(), &env)

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		if isThrottleStatus(status, env.ErrorID) {
			return nil, &RateLimitError{
				StatusCode: status,
				ErrorID:    env.ErrorID,
				Message:    env.ErrorMessage,
				Backoff:    time.Duration(env.Backoff) * time.Second,
			}
		}
		return nil, &APIError{
			StatusCode: status,
			ErrorID:    env.ErrorID,
			ErrorName:  env.ErrorName,
			Message:    env.ErrorMessage,
		}
	}

	if decodeErr != nil {
		return nil, &PayloadError{Path: path, Err: decodeErr}
	}

	if env.QuotaMax > 0 && env.QuotaRemaining < quotaWarnThreshold {
		c.log.Warn().
			Int("quota_remaining", env.QuotaRemaining).
			Int("quota_max", env.QuotaMax).
			Msg("Stack Exchange quota running low")
	}

	return &env, nil
}
