package webhook_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/rpg-advancement/internal/errors"
	"github.com/KirkDiggler/rpg-advancement/internal/handlers/webhook"
	"github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice"
	dicemock "github.com/KirkDiggler/rpg-advancement/internal/orchestrators/dice/mock"
	"github.com/KirkDiggler/rpg-advancement/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-advancement/internal/testutils"
)

const aliceBody = `{
	"version": "1.0",
	"session": {"session_id": "s-1", "message_id": 4, "user_id": "u-9"},
	"request": {"command": "roll 2 d 6 plus 1"}
}`

type WebhookTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	mockDice *dicemock.MockService
	router   *gin.Engine
}

func TestWebhookTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookTestSuite))
}

func (s *WebhookTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.ctrl = gomock.NewController(s.T())
	s.mockDice = dicemock.NewMockService(s.ctrl)

	opts := webhook.DefaultRateLimiterOptions()
	opts.Burst = 2
	opts.Limit = 0

	router, err := webhook.NewRouter(&webhook.Config{
		DiceService: s.mockDice,
		Limiter:     webhook.NewRateLimiter(opts, clock.NewFixed(testutils.TestTime)),
		Gatherer:    prometheus.NewRegistry(),
	})
	s.Require().NoError(err)
	s.router = router
}

func (s *WebhookTestSuite) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/alice", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *WebhookTestSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *WebhookTestSuite) TestRollCommand() {
	s.mockDice.EXPECT().
		HandleCommand(gomock.Any(), &dice.HandleCommandInput{SessionID: "s-1", Command: "roll 2 d 6 plus 1"}).
		Return(&dice.HandleCommandOutput{Text: "Roll result: 8"}, nil)

	w := s.post(aliceBody)
	s.Equal(http.StatusOK, w.Code)

	out := s.decode(w)
	s.Equal("1.0", out["version"])
	s.Equal(map[string]any{"session_id": "s-1", "message_id": float64(4), "user_id": "u-9"}, out["session"])
	s.Equal(map[string]any{"text": "Roll result: 8", "end_session": false}, out["response"])
}

func (s *WebhookTestSuite) TestServiceErrorAnswersDefaultText() {
	s.mockDice.EXPECT().
		HandleCommand(gomock.Any(), gomock.Any()).
		Return(nil, errors.Unavailable("redis down"))

	w := s.post(aliceBody)
	s.Equal(http.StatusOK, w.Code)

	response := s.decode(w)["response"].(map[string]any)
	s.Equal(dice.DefaultAnswer, response["text"])
	s.Equal(false, response["end_session"])
}

func (s *WebhookTestSuite) TestMalformedBody() {
	w := s.post(`{"version": `)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"code":"INVALID_ARGUMENT"`)
}

func (s *WebhookTestSuite) TestRateLimitedPerSession() {
	s.mockDice.EXPECT().
		HandleCommand(gomock.Any(), gomock.Any()).
		Return(&dice.HandleCommandOutput{Text: "Roll result: 8"}, nil).
		Times(2)

	s.Equal(http.StatusOK, s.post(aliceBody).Code)
	s.Equal(http.StatusOK, s.post(aliceBody).Code)

	w := s.post(aliceBody)
	s.Equal(http.StatusTooManyRequests, w.Code)
	s.Equal("1", w.Header().Get("Retry-After"))
	s.Contains(w.Body.String(), `"code":"RESOURCE_EXHAUSTED"`)
}

func (s *WebhookTestSuite) TestHealthAndMetrics() {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "ok")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)
}

func (s *WebhookTestSuite) TestNewRouterValidatesConfig() {
	_, err := webhook.NewRouter(&webhook.Config{})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}
