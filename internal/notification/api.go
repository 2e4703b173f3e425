package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"bank-personalization/internal/domain"
	"bank-personalization/internal/observability"
)

const systemPrompt = "Ты пишешь короткие персональные пуш-уведомления банка в дружелюбном тоне."

// APIConfig configures an APIGenerator.
type APIConfig struct {
	URL         string // chat completions endpoint
	APIKey      string
	Model       string
	Timeout     time.Duration // per request, default 30s
	RatePerSec  float64       // default 2
	Burst       int           // default 1
	MaxRetries  uint64        // default 2
	MaxTokens   int           // default 200
	Temperature float64
}

// APIGenerator calls an OpenAI-compatible chat completion endpoint.
// Failures fall back to the template generator and are not returned.
type APIGenerator struct {
	cfg      APIConfig
	client   *http.Client
	limiter  *rate.Limiter
	cache    Cache
	fallback Generator
	metrics  *observability.Metrics
	log      zerolog.Logger
}

// NewAPIGenerator creates an API generator. cache and m may be nil.
func NewAPIGenerator(cfg APIConfig, cache Cache, m *observability.Metrics, log zerolog.Logger) *APIGenerator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 200
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}

	return &APIGenerator{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		cache:    cache,
		fallback: NewTemplateGenerator(m),
		metrics:  m,
		log:      log.With().Str("component", "notification").Logger(),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate returns cached text, API text, or template text, in that order of preference.
// An error is returned only when ctx is done.
func (g *APIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	key := CacheKey(req)
	if g.cache != nil {
		if text, ok := g.cache.Get(ctx, key); ok {
			g.metrics.RecordNotification(SourceCache)
			return text, nil
		}
	}

	text, err := g.call(ctx, prompt(req))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.log.Warn().Err(err).
			Int64("client_code", req.Client.Code).
			Str("product", string(req.Product.Code)).
			Msg("notification api failed, using template")
		g.metrics.RecordNotification(SourceFallback)
		return g.fallback.Generate(ctx, req)
	}

	text = Truncate(text)
	g.metrics.RecordNotification(SourceAPI)
	if g.cache != nil {
		if err := g.cache.Set(ctx, key, text); err != nil {
			g.log.Debug().Err(err).Msg("notification cache set failed")
		}
	}
	return text, nil
}

func (g *APIGenerator) call(ctx context.Context, userPrompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var text string
	op := func() error {
		if err := g.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		start := time.Now()
		t, err := g.post(ctx, body)
		g.metrics.ObserveNotificationAPI(time.Since(start))
		if err != nil {
			return err
		}
		text = t
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackoff(), g.cfg.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", err
	}
	return text, nil
}

// post sends one request. 4xx responses other than 429 are permanent.
func (g *APIGenerator) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", backoff.Permanent(fmt.Errorf("empty completion"))
	}
	return out.Choices[0].Message.Content, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}

func prompt(req Request) string {
	var sb strings.Builder
	fs := req.Features

	fmt.Fprintf(&sb, "Сгенерируй персональное пуш-уведомление для клиента банка.\n\n")
	fmt.Fprintf(&sb, "Имя: %s\n", req.Client.Name)
	fmt.Fprintf(&sb, "Статус: %s\n", req.Client.Status)
	fmt.Fprintf(&sb, "Средний остаток: %s\n", Money(req.Client.AvgMonthlyBalance))
	fmt.Fprintf(&sb, "Траты в месяц: %s\n", Money(fs.Get(domain.FeatureTotalSpendMonthly)))
	if len(fs.TopCategories) > 0 {
		fmt.Fprintf(&sb, "Топ-категории: %s\n", strings.Join(fs.TopCategories, ", "))
	}
	if travel := fs.Get(domain.FeatureTravelSpendMonthly); travel.IsPositive() {
		fmt.Fprintf(&sb, "Траты на поездки в месяц: %s\n", Money(travel))
	}
	fmt.Fprintf(&sb, "\nПродукт: %s\n", req.Product.Name)
	fmt.Fprintf(&sb, "Выгода: %s в год\n", Money(req.Recommendation.Benefit))
	fmt.Fprintf(&sb, "Причина: %s\n\n", req.Recommendation.Reason)
	fmt.Fprintf(&sb, "Требования: обращение на \"вы\" с маленькой буквы, важное в начале, не больше одного эмодзи, "+
		"длина 180-220 символов, разряды чисел через пробел, в конце призыв к действию. Верни только текст уведомления.")
	return sb.String()
}
