// Package generator produces promotional post text through the OpenAI
// chat-completions API.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

const (
	apiURL         = "https://api.openai.com/v1/chat/completions"
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
)

// Client calls the OpenAI chat-completions endpoint.
type Client struct {
	apiKey  string
	model   string
	botLink string
	httpc   *http.Client
	log     *zap.Logger

	baseURL string // overridable in tests
}

func New(apiKey, model, botLink string, log *zap.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		botLink: botLink,
		httpc:   &http.Client{Timeout: requestTimeout},
		log:     log,
		baseURL: apiURL,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate produces one ready-to-publish Facebook post for the given theme.
// The prompt pins the structural contract: approved opening emoji, "free"
// mention, a call to action, the bot link at the end, 150-300 characters.
func (c *Client) Generate(ctx context.Context, theme string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: missing OpenAI API key", domain.ErrGenerationFailed)
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role:    "system",
			Content: c.systemPrompt(theme),
		}},
		MaxTokens:   300,
		Temperature: 0.7,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, ctx.Err())
			case <-time.After(time.Second * time.Duration(attempt)):
			}
		}
		text, err := c.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
		c.log.Warn("openai attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return "", fmt.Errorf("%w: after %d attempts: %v", domain.ErrGenerationFailed, maxAttempts, lastErr)
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("openai %s: %s", resp.Status, parsed.Error.Message)
		}
		return "", fmt.Errorf("openai %s", resp.Status)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

func (c *Client) systemPrompt(theme string) string {
	return "Tu es un expert en copywriting et en marketing digital. " +
		"Génère un message court, percutant et ultra engageant pour une publication Facebook " +
		"qui promeut un bot Telegram de pronostics football. " +
		"Le bot donne des coupons avec une forte probabilité de réussite. " +
		"Le message doit obligatoirement :" +
		" - Commencer par un emoji ⚽, 🔥, 💰 ou 🎯" +
		" - Préciser que c'est gratuit" +
		" - Éviter de commencer par le mot «prêt»" +
		" - Utiliser un ton amical et engageant" +
		" - Intégrer un appel à l'action clair et motivant : « Rejoins », « Clique ici », « Active ton accès », etc." +
		" - Terminer par le lien du bot ➡️ " + c.botLink +
		" - Longueur idéale : entre 150 et 300 caractères" +
		" - PAS d'explications ni de commentaires, juste le message à publier" +
		" - Thème spécifique à intégrer: " + theme +
		" Génère uniquement le message prêt à publier."
}
