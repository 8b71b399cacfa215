// Package bluesky is a thin AT Protocol (XRPC) adapter: session login,
// author feed reads, post thread reads, and record creation. It owns no
// story logic; the orchestrator consumes it through narrow request/response
// types and applies its own month segmentation.
package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Post is one of the bot's own feed posts.
type Post struct {
	URI         string
	CID         string
	Text        string
	LikeCount   int
	RepostCount int
	ReplyCount  int
}

// Reply is an audience reply on one of the bot's posts.
type Reply struct {
	Text        string
	LikeCount   int
	RepostCount int
}

// PostRef identifies a newly created post.
type PostRef struct {
	URI string
	CID string
}

// Engagement is a point-in-time snapshot of a post's metrics.
type Engagement struct {
	Likes   int
	Reposts int
	Replies int
}

// Config holds connection settings for the Bluesky client.
type Config struct {
	Host        string
	Handle      string
	AppPassword string
	Timeout     time.Duration
}

// DefaultConfig returns sensible defaults for the given account.
func DefaultConfig(handle, appPassword string) Config {
	return Config{
		Host:        "https://bsky.social",
		Handle:      handle,
		AppPassword: appPassword,
		Timeout:     30 * time.Second,
	}
}

// Client talks XRPC to a Bluesky PDS. Safe for use from a single goroutine;
// the orchestration loop is the only caller.
type Client struct {
	host       string
	handle     string
	password   string
	httpClient *http.Client

	mu        sync.Mutex
	accessJwt string
	did       string
}

// NewClient creates a Bluesky client. Authentication happens lazily on the
// first call that needs it.
func NewClient(config Config) (*Client, error) {
	if config.Handle == "" || config.AppPassword == "" {
		return nil, fmt.Errorf("bluesky handle and app password are required")
	}
	if config.Host == "" {
		config.Host = "https://bsky.social"
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Client{
		host:     config.Host,
		handle:   config.Handle,
		password: config.AppPassword,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

// ensureSession logs in once and caches the access token for the run's
// lifetime. Daily runs are short enough that token refresh is unnecessary.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessJwt != "" {
		return nil
	}

	body := map[string]string{
		"identifier": c.handle,
		"password":   c.password,
	}
	var session sessionResponse
	if err := c.call(ctx, http.MethodPost, "com.atproto.server.createSession", nil, body, &session, false); err != nil {
		return fmt.Errorf("bluesky login failed: %w", err)
	}
	if session.AccessJwt == "" || session.DID == "" {
		return fmt.Errorf("bluesky login returned an incomplete session")
	}

	c.accessJwt = session.AccessJwt
	c.did = session.DID
	return nil
}

// call performs one XRPC request. query is encoded for GETs, body is JSON
// encoded for POSTs, and out receives the decoded response when non-nil.
func (c *Client) call(ctx context.Context, method, nsid string, query url.Values, body, out any, authed bool) error {
	endpoint := c.host + "/xrpc/" + nsid
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status %d: %s", nsid, resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", nsid, err)
		}
	}
	return nil
}

// feedResponse mirrors app.bsky.feed.getAuthorFeed.
type feedResponse struct {
	Feed []struct {
		Post  feedPost        `json:"post"`
		Reply json.RawMessage `json:"reply"`
	} `json:"feed"`
}

type feedPost struct {
	URI    string `json:"uri"`
	CID    string `json:"cid"`
	Record struct {
		Text  string          `json:"text"`
		Reply json.RawMessage `json:"reply"`
	} `json:"record"`
	LikeCount   int `json:"likeCount"`
	RepostCount int `json:"repostCount"`
	ReplyCount  int `json:"replyCount"`
}

// RecentPosts fetches the account's own recent posts, newest first. Reply
// posts are excluded: the story is told in top-level posts only.
func (c *Client) RecentPosts(ctx context.Context, limit int) ([]Post, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("actor", c.handle)
	query.Set("limit", strconv.Itoa(limit))

	var feed feedResponse
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getAuthorFeed", query, nil, &feed, true); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(feed.Feed))
	for _, item := range feed.Feed {
		if len(item.Reply) > 0 || len(item.Post.Record.Reply) > 0 {
			continue
		}
		posts = append(posts, Post{
			URI:         item.Post.URI,
			CID:         item.Post.CID,
			Text:        item.Post.Record.Text,
			LikeCount:   item.Post.LikeCount,
			RepostCount: item.Post.RepostCount,
			ReplyCount:  item.Post.ReplyCount,
		})
	}
	return posts, nil
}

// threadResponse mirrors app.bsky.feed.getPostThread, one level deep.
type threadResponse struct {
	Thread struct {
		Replies []struct {
			Post feedPost `json:"post"`
		} `json:"replies"`
	} `json:"thread"`
}

// Replies fetches the direct replies on a post. Nested reply threads are
// ignored; only top-level replies steer the story.
func (c *Client) Replies(ctx context.Context, postURI string) ([]Reply, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("uri", postURI)
	query.Set("depth", "1")

	var thread threadResponse
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getPostThread", query, nil, &thread, true); err != nil {
		return nil, err
	}

	replies := make([]Reply, 0, len(thread.Thread.Replies))
	for _, item := range thread.Thread.Replies {
		if item.Post.Record.Text == "" {
			continue
		}
		replies = append(replies, Reply{
			Text:        item.Post.Record.Text,
			LikeCount:   item.Post.LikeCount,
			RepostCount: item.Post.RepostCount,
		})
	}
	return replies, nil
}

type createRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Publish creates a new feed post with the given text.
func (c *Client) Publish(ctx context.Context, text string) (PostRef, error) {
	if err := c.ensureSession(ctx); err != nil {
		return PostRef{}, err
	}

	body := map[string]any{
		"repo":       c.did,
		"collection": "app.bsky.feed.post",
		"record": map[string]any{
			"$type":     "app.bsky.feed.post",
			"text":      text,
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		},
	}

	var created createRecordResponse
	if err := c.call(ctx, http.MethodPost, "com.atproto.repo.createRecord", nil, body, &created, true); err != nil {
		return PostRef{}, err
	}
	if created.URI == "" {
		return PostRef{}, fmt.Errorf("createRecord returned no uri")
	}
	return PostRef{URI: created.URI, CID: created.CID}, nil
}

// postsResponse mirrors app.bsky.feed.getPosts.
type postsResponse struct {
	Posts []feedPost `json:"posts"`
}

// Metrics fetches the current engagement counts for a post.
func (c *Client) Metrics(ctx context.Context, postURI string) (Engagement, error) {
	if err := c.ensureSession(ctx); err != nil {
		return Engagement{}, err
	}

	query := url.Values{}
	query.Set("uris", postURI)

	var posts postsResponse
	if err := c.call(ctx, http.MethodGet, "app.bsky.feed.getPosts", query, nil, &posts, true); err != nil {
		return Engagement{}, err
	}
	if len(posts.Posts) == 0 {
		return Engagement{}, fmt.Errorf("post not found: %s", postURI)
	}

	post := posts.Posts[0]
	return Engagement{
		Likes:   post.LikeCount,
		Reposts: post.RepostCount,
		Replies: post.ReplyCount,
	}, nil
}
