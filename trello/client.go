/*
Package trello implements board.Source against the Trello REST API.

PURPOSE:
  Fetches the three data sets an analysis needs from one board: cards
  (with custom field items), custom field definitions, and lists.

AUTHENTICATION:
  API key + member token as request parameters. The interactive OAuth
  handshake that produces the token lives outside this service; the
  engine only consumes the resulting credentials.

WIRE MAPPING:
  card.idList                -> Record.ContainerID
  card.customFieldItems      -> Record.Fields (idValue kept separately
                                from the nested value payload, which is
                                decoded into the board.FieldValue variant)
  customField.options[].value.text -> board.FieldOption.Text
*/
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/warp/capacity-engine/board"
)

const (
	defaultBaseURL = "https://api.trello.com/1"
	clientTimeout  = 30 * time.Second
)

// Client fetches one board's data. The board scope is fixed at
// construction; one analysis run never crosses boards.
type Client struct {
	baseURL string
	key     string
	token   string
	boardID string
	http    *http.Client
	log     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for one board.
func NewClient(key, token, boardID string, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL: defaultBaseURL,
		key:     key,
		token:   token,
		boardID: boardID,
		http:    &http.Client{Timeout: clientTimeout},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type cardResponse struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	IDList           string            `json:"idList"`
	CustomFieldItems []customFieldItem `json:"customFieldItems"`
}

type customFieldItem struct {
	IDCustomField string           `json:"idCustomField"`
	IDValue       string           `json:"idValue"`
	Value         board.FieldValue `json:"value"`
}

type customFieldResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Options []struct {
		ID    string `json:"id"`
		Value struct {
			Text string `json:"text"`
		} `json:"value"`
		Text string `json:"text"`
	} `json:"options"`
}

type listResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// =============================================================================
// SOURCE IMPLEMENTATION
// =============================================================================

// FetchRecords returns every card on the board with its custom field
// items.
func (c *Client) FetchRecords(ctx context.Context) ([]board.Record, error) {
	var cards []cardResponse
	params := url.Values{"customFieldItems": {"true"}}
	if err := c.get(ctx, fmt.Sprintf("/boards/%s/cards", c.boardID), params, &cards); err != nil {
		return nil, fmt.Errorf("fetching cards: %w", err)
	}

	records := make([]board.Record, 0, len(cards))
	for _, card := range cards {
		rec := board.Record{
			ID:          card.ID,
			Title:       card.Name,
			ContainerID: card.IDList,
		}
		for _, item := range card.CustomFieldItems {
			rec.Fields = append(rec.Fields, board.FieldItem{
				FieldID:  item.IDCustomField,
				OptionID: item.IDValue,
				Value:    item.Value,
			})
		}
		records = append(records, rec)
	}
	c.log.Debug("cards fetched", zap.String("board", c.boardID), zap.Int("count", len(records)))
	return records, nil
}

// FetchFieldDefinitions returns the board's custom field definitions.
func (c *Client) FetchFieldDefinitions(ctx context.Context) ([]board.FieldDefinition, error) {
	var fields []customFieldResponse
	if err := c.get(ctx, fmt.Sprintf("/boards/%s/customFields", c.boardID), nil, &fields); err != nil {
		return nil, fmt.Errorf("fetching custom fields: %w", err)
	}

	defs := make([]board.FieldDefinition, 0, len(fields))
	for _, f := range fields {
		def := board.FieldDefinition{
			ID:   f.ID,
			Name: f.Name,
			Type: board.FieldType(f.Type),
		}
		for _, opt := range f.Options {
			text := opt.Value.Text
			if text == "" {
				text = opt.Text
			}
			def.Options = append(def.Options, board.FieldOption{ID: opt.ID, Text: text})
		}
		defs = append(defs, def)
	}
	c.log.Debug("custom fields fetched", zap.String("board", c.boardID), zap.Int("count", len(defs)))
	return defs, nil
}

// FetchContainers returns the board's lists.
func (c *Client) FetchContainers(ctx context.Context) ([]board.Container, error) {
	var lists []listResponse
	if err := c.get(ctx, fmt.Sprintf("/boards/%s/lists", c.boardID), nil, &lists); err != nil {
		return nil, fmt.Errorf("fetching lists: %w", err)
	}

	containers := make([]board.Container, 0, len(lists))
	for _, l := range lists {
		containers = append(containers, board.Container{ID: l.ID, Name: l.Name})
	}
	return containers, nil
}

// =============================================================================
// HTTP PLUMBING
// =============================================================================

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.key)
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling board API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("board API returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
