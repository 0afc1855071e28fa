package payments

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const MockProvider = "mock"

// MockConfig tunes the simulated provider.
type MockConfig struct {
	Latency   time.Duration // simulated round trip per call
	Secret    string        // HMAC key for client secrets
	SecretTTL time.Duration
}

// MockGateway simulates a payment provider.
//
// ConfirmIntent trusts the status reported by the client: "success" and
// "succeeded" count as paid, anything else (including an empty status) as
// failed. A real provider must verify the intent server-side instead.
type MockGateway struct {
	cfg MockConfig
	seq atomic.Uint64
	now func() time.Time
}

// NewMockGateway creates a MockGateway.
func NewMockGateway(cfg MockConfig) *MockGateway {
	if cfg.SecretTTL <= 0 {
		cfg.SecretTTL = 30 * time.Minute
	}
	return &MockGateway{cfg: cfg, now: time.Now}
}

func (g *MockGateway) Name() string {
	return MockProvider
}

// IssueIntent creates an intent whose id is unique per call within the process.
func (g *MockGateway) IssueIntent(ctx context.Context, req IntentRequest) (*PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	now := g.now()
	intentID := fmt.Sprintf("%s_pi_%d_%d", MockProvider, now.UnixNano(), g.seq.Add(1))

	claims := jwt.MapClaims{
		"pi":       intentID,
		"amount":   req.Amount,
		"currency": req.Currency,
		"iat":      now.Unix(),
		"exp":      now.Add(g.cfg.SecretTTL).Unix(),
	}
	if orderID, ok := req.Metadata["orderId"]; ok {
		claims["order_id"] = orderID
	}
	secret, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(g.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign client secret: %w", err)
	}

	return &PaymentIntent{
		ID:           intentID,
		ClientSecret: secret,
		Provider:     MockProvider,
		Metadata:     req.Metadata,
	}, nil
}

// ConfirmIntent reports success when the submitted status is a success token.
func (g *MockGateway) ConfirmIntent(ctx context.Context, intentID string, req ConfirmRequest) (*Confirmation, error) {
	if intentID == "" {
		return nil, ErrMissingIntent
	}
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	raw := make(map[string]any, len(req.Payload)+1)
	for k, v := range req.Payload {
		raw[k] = v
	}
	raw["status"] = req.Status

	return &Confirmation{
		Success:  IsSuccessStatus(req.Status),
		Provider: MockProvider,
		Raw:      raw,
	}, nil
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.cfg.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.cfg.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsSuccessStatus reports whether a client-reported status means the payment went through.
func IsSuccessStatus(status string) bool {
	return status == "success" || status == "succeeded"
}
