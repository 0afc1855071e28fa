package payments_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/payments"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test_payment_secret"

func newMock(latency time.Duration) *payments.MockGateway {
	return payments.NewMockGateway(payments.MockConfig{Latency: latency, Secret: testSecret, SecretTTL: time.Hour})
}

func TestMockGateway_IssueIntent(t *testing.T) {
	g := newMock(0)

	intent, err := g.IssueIntent(context.Background(), payments.IntentRequest{
		Amount:   21.60,
		Currency: "USD",
		Metadata: map[string]string{"orderId": "order-1"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(intent.ID, "mock_pi_"))
	assert.Equal(t, payments.MockProvider, intent.Provider)
	assert.Equal(t, "order-1", intent.Metadata["orderId"])

	parsed, err := jwt.Parse(intent.ClientSecret, func(token *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, intent.ID, claims["pi"])
	assert.Equal(t, "order-1", claims["order_id"])
	assert.Equal(t, "USD", claims["currency"])
}

func TestMockGateway_IssueIntentRejectsNonPositiveAmount(t *testing.T) {
	g := newMock(0)
	for _, amount := range []float64{0, -1} {
		_, err := g.IssueIntent(context.Background(), payments.IntentRequest{Amount: amount, Currency: "USD"})
		assert.ErrorIs(t, err, payments.ErrInvalidAmount)
	}
}

func TestMockGateway_IntentIDsAreUniqueUnderConcurrency(t *testing.T) {
	g := newMock(0)
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			intent, err := g.IssueIntent(context.Background(), payments.IntentRequest{Amount: 1, Currency: "USD"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[intent.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestMockGateway_ConfirmIntent(t *testing.T) {
	g := newMock(0)
	ctx := context.Background()

	cases := map[string]bool{
		"success":   true,
		"succeeded": true,
		"declined":  false,
		"SUCCESS":   false,
		"":          false,
	}
	for status, want := range cases {
		conf, err := g.ConfirmIntent(ctx, "mock_pi_1", payments.ConfirmRequest{
			Status:  status,
			Payload: map[string]any{"nameOnCard": "Ada"},
		})
		require.NoError(t, err)
		assert.Equal(t, want, conf.Success, "status %q", status)
		assert.Equal(t, "Ada", conf.Raw["nameOnCard"])
	}

	_, err := g.ConfirmIntent(ctx, "", payments.ConfirmRequest{Status: "success"})
	assert.ErrorIs(t, err, payments.ErrMissingIntent)
}

func TestMockGateway_HonorsContextCancellation(t *testing.T) {
	g := newMock(time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := g.IssueIntent(ctx, payments.IntentRequest{Amount: 5, Currency: "USD"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// MockGateway is a testify mock of payments.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Name() string { return "stub" }

func (m *MockGateway) IssueIntent(ctx context.Context, req payments.IntentRequest) (*payments.PaymentIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.PaymentIntent), args.Error(1)
}

func (m *MockGateway) ConfirmIntent(ctx context.Context, intentID string, req payments.ConfirmRequest) (*payments.Confirmation, error) {
	args := m.Called(ctx, intentID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Confirmation), args.Error(1)
}

func TestGuardedGateway_TimesOutSlowProvider(t *testing.T) {
	g := payments.NewGuardedGateway(newMock(time.Second), 20*time.Millisecond, nil, zap.NewNop())

	start := time.Now()
	_, err := g.IssueIntent(context.Background(), payments.IntentRequest{Amount: 5, Currency: "USD"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGuardedGateway_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := new(MockGateway)
	inner.On("IssueIntent", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Times(5)
	g := payments.NewGuardedGateway(inner, time.Second, nil, zap.NewNop())

	req := payments.IntentRequest{Amount: 5, Currency: "USD"}
	for i := 0; i < 5; i++ {
		_, err := g.IssueIntent(context.Background(), req)
		require.Error(t, err)
		assert.NotErrorIs(t, err, payments.ErrGatewayUnavailable)
	}

	_, err := g.IssueIntent(context.Background(), req)
	assert.ErrorIs(t, err, payments.ErrGatewayUnavailable)
	inner.AssertExpectations(t)
}

func TestGuardedGateway_CallerErrorsDoNotTrip(t *testing.T) {
	g := payments.NewGuardedGateway(newMock(0), time.Second, nil, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := g.IssueIntent(ctx, payments.IntentRequest{Amount: 0, Currency: "USD"})
		assert.ErrorIs(t, err, payments.ErrInvalidAmount)
	}
	intent, err := g.IssueIntent(ctx, payments.IntentRequest{Amount: 3, Currency: "USD"})
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ID)
	assert.Equal(t, payments.MockProvider, g.Name())
}
