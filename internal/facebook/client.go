// Package facebook is a minimal Graph API client: page publishing plus the
// OAuth code-for-token exchange used to connect an account.
package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
	"github.com/Waribiz/waribiz-bot/internal/images"
)

const (
	defaultGraphURL = "https://graph.facebook.com/v22.0"
	defaultOAuthURL = "https://www.facebook.com/v22.0/dialog/oauth"
	oauthScope      = "pages_show_list,pages_read_engagement,pages_manage_posts,pages_manage_metadata"

	// Long-lived user tokens last about 60 days; the Graph response does not
	// always include expires_in, so the expiry date is computed here.
	longLivedTokenTTL = 60 * 24 * time.Hour
)

// Page is one publishing destination the user can manage.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

// Client talks to the Facebook Graph API.
type Client struct {
	appID       string
	appSecret   string
	redirectURI string
	httpc       *http.Client
	log         *zap.Logger

	graphURL string // overridable in tests
	oauthURL string
}

func New(appID, appSecret, redirectURI string, log *zap.Logger) *Client {
	return &Client{
		appID:       appID,
		appSecret:   appSecret,
		redirectURI: redirectURI,
		httpc:       &http.Client{Timeout: 30 * time.Second},
		log:         log,
		graphURL:    defaultGraphURL,
		oauthURL:    defaultOAuthURL,
	}
}

// AuthURL builds the OAuth dialog URL. The state parameter carries the Telegram
// chat ID so the callback can be matched back to the user.
func (c *Client) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("state", state)
	q.Set("scope", oauthScope)
	return c.oauthURL + "?" + q.Encode()
}

type graphError struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FbtraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// ExchangeCode trades an authorization code for a short-lived user token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	q := url.Values{}
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("redirect_uri", c.redirectURI)
	q.Set("code", code)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.getJSON(ctx, c.graphURL+"/oauth/access_token?"+q.Encode(), &out); err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("exchange code: empty access_token")
	}
	return out.AccessToken, nil
}

// ExchangeLongLived trades a short-lived token for a long-lived one and
// returns the token with its computed expiry date.
func (c *Client) ExchangeLongLived(ctx context.Context, shortToken string) (string, time.Time, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.appID)
	q.Set("client_secret", c.appSecret)
	q.Set("fb_exchange_token", shortToken)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.getJSON(ctx, c.graphURL+"/oauth/access_token?"+q.Encode(), &out); err != nil {
		return "", time.Time{}, fmt.Errorf("long-lived token: %w", err)
	}
	if out.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("long-lived token: empty access_token")
	}
	return out.AccessToken, time.Now().UTC().Add(longLivedTokenTTL), nil
}

// ListPages returns the pages the user token can manage.
func (c *Client) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	q := url.Values{}
	q.Set("access_token", userToken)

	var out struct {
		Data []Page `json:"data"`
	}
	if err := c.getJSON(ctx, c.graphURL+"/me/accounts?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return out.Data, nil
}

// PublishPhoto posts a message with an image to a page and returns the post ID.
// Remote image URLs are passed through; local paths are uploaded as multipart.
func (c *Client) PublishPhoto(ctx context.Context, pageID, pageToken, message, image string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/photos", c.graphURL, pageID)

	var (
		resp *http.Response
		err  error
	)
	if images.IsURL(image) {
		form := url.Values{}
		form.Set("message", message)
		form.Set("access_token", pageToken)
		form.Set("url", image)
		resp, err = c.postForm(ctx, endpoint, form)
	} else {
		resp, err = c.postMultipart(ctx, endpoint, pageToken, message, image)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrPublishFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return "", fmt.Errorf("%w: %s (code %d)", domain.ErrPublishFailed, ge.Error.Message, ge.Error.Code)
		}
		return "", fmt.Errorf("%w: graph %s", domain.ErrPublishFailed, resp.Status)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.ID == "" {
		return "", fmt.Errorf("%w: no post id in response", domain.ErrPublishFailed)
	}
	c.log.Info("published to facebook", zap.String("pageID", pageID), zap.String("postID", out.ID))
	return out.ID, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpc.Do(req)
}

func (c *Client) postMultipart(ctx context.Context, endpoint, pageToken, message, path string) (*http.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("message", message); err != nil {
		return nil, err
	}
	if err := w.WriteField("access_token", pageToken); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile("source", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.httpc.Do(req)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var ge graphError
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return fmt.Errorf("graph %s: %s (code %d)", resp.Status, ge.Error.Message, ge.Error.Code)
		}
		return fmt.Errorf("graph %s", resp.Status)
	}
	return json.Unmarshal(body, out)
}
