package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"
)

// Game is a single catalog entry.
type Game struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug"`
	Summary           string            `json:"summary"`
	FirstReleaseDate  int64             `json:"first_release_date"`
	Genres            []Genre           `json:"genres"`
	InvolvedCompanies []InvolvedCompany `json:"involved_companies"`
	Cover             *Cover            `json:"cover"`
}

// Genre is a catalog genre reference.
type Genre struct {
	Name string `json:"name"`
}

// InvolvedCompany links a company to a game with its role.
type InvolvedCompany struct {
	Company   Company `json:"company"`
	Developer bool    `json:"developer"`
	Publisher bool    `json:"publisher"`
}

// Company is a catalog company reference.
type Company struct {
	Name string `json:"name"`
}

// Cover is a catalog image reference.
type Cover struct {
	URL string `json:"url"`
}

// Year returns the first-release year, or zero when unknown.
func (g Game) Year() int {
	if g.FirstReleaseDate <= 0 {
		return 0
	}
	return time.Unix(g.FirstReleaseDate, 0).UTC().Year()
}

// GenreNames returns the genre names in catalog order.
func (g Game) GenreNames() []string {
	names := make([]string, 0, len(g.Genres))
	for _, genre := range g.Genres {
		if genre.Name != "" {
			names = append(names, genre.Name)
		}
	}
	return names
}

// DeveloperName returns the first company credited as developer.
func (g Game) DeveloperName() string {
	for _, ic := range g.InvolvedCompanies {
		if ic.Developer && ic.Company.Name != "" {
			return ic.Company.Name
		}
	}
	return ""
}

// PublisherName returns the first company credited as publisher.
func (g Game) PublisherName() string {
	for _, ic := range g.InvolvedCompanies {
		if ic.Publisher && ic.Company.Name != "" {
			return ic.Company.Name
		}
	}
	return ""
}

// CoverURL returns the normalized cover image URL, or empty when the catalog
// has none.
func (g Game) CoverURL() string {
	if g.Cover == nil {
		return ""
	}
	return NormalizeCoverURL(g.Cover.URL)
}

// NormalizeCoverURL upgrades a catalog image reference to an absolute https
// URL at cover size. Catalog responses use protocol-relative thumbnail URLs.
func NormalizeCoverURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return ""
	}
	if strings.HasPrefix(url, "//") {
		url = "https:" + url
	}
	url = strings.Replace(url, "http://", "https://", 1)
	url = strings.Replace(url, "/t_thumb/", "/t_cover_big/", 1)
	return url
}

// Searcher defines the catalog operations the resolution pipeline uses.
type Searcher interface {
	SearchGames(ctx context.Context, query string, limit int) ([]Game, error)
	GameBySlug(ctx context.Context, slug string) (*Game, error)
}

// Client provides access to the external game catalog.
type Client struct {
	clientID    string
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a catalog client.
func New(clientID, accessToken, baseURL string, opts ...Option) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("igdb client id required")
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.New("igdb access token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("igdb base url required")
	}
	client := &Client{
		clientID:    clientID,
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

const gameFields = "fields name,slug,summary,first_release_date,genres.name," +
	"involved_companies.company.name,involved_companies.developer," +
	"involved_companies.publisher,cover.url;"

// SearchGames runs a text search and returns matches in catalog relevance
// order; the first result is the catalog's best guess.
func (c *Client) SearchGames(ctx context.Context, query string, limit int) ([]Game, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query required")
	}
	if limit <= 0 {
		limit = 10
	}
	body := fmt.Sprintf("search %q; %s limit %d;", query, gameFields, limit)
	return c.queryGames(ctx, body)
}

// GameBySlug looks up a single game by exact slug.
func (c *Client) GameBySlug(ctx context.Context, slug string) (*Game, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, errors.New("slug required")
	}
	body := fmt.Sprintf("%s where slug = %q; limit 1;", gameFields, slug)
	games, err := c.queryGames(ctx, body)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, nil
	}
	return &games[0], nil
}

func (c *Client) queryGames(ctx context.Context, body string) ([]Game, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/games", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Client-ID", c.clientID)
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var games []Game
	if err := json.NewDecoder(resp.Body).Decode(&games); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}
	return games, nil
}

// Slugify derives the catalog slug form of a title: lowercase alphanumerics
// joined by single hyphens.
func Slugify(title string) string {
	var b strings.Builder
	prevHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
