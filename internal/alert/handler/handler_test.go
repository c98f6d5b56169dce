package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"alertcast/internal/alert/service"
	"alertcast/internal/alert/store"
	"alertcast/pkg/testutil"
)

const (
	adminUser = "deployer"
	user1     = "wallet_1"
	user2     = "wallet_2"
)

// HandlerSuite exercises the HTTP surface against a real service over memory
// stores. Auth middleware is bypassed; principals are injected directly.
type HandlerSuite struct {
	suite.Suite
	svc    *service.Service
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.svc = service.New(
		store.NewMemoryAlertStore(),
		store.NewMemoryInteractionStore(),
		store.NewMemoryPreferenceStore(),
		store.NewMemoryTierStore(),
		store.NewMemoryAdminStore(adminUser),
		service.WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }),
	)
	s.router = chi.NewRouter()
	New(s.svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(principal, method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req = testutil.WithPrincipal(req, principal)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) createAlert() alertResponse {
	rr := s.do(adminUser, http.MethodPost, "/alerts", createAlertRequest{
		Title:        "BREAKING: Major Exchange Hack",
		Message:      "Major cryptocurrency exchange compromised",
		Category:     "security",
		Severity:     1,
		RequiredTier: "basic",
	})
	s.Require().Equal(http.StatusCreated, rr.Code)
	return *testutil.UnmarshalResponse[alertResponse](s.T(), rr)
}

func (s *HandlerSuite) TestCreateAlert() {
	s.Run("admin creates", func() {
		alert := s.createAlert()
		s.Equal(int64(1), alert.ID)
		s.Equal("security", alert.Category)
		s.True(alert.Active)
		s.Nil(alert.TotalEligible)
		s.Nil(alert.ImpactScore)
	})

	s.Run("non-admin gets 403", func() {
		rr := s.do(user1, http.MethodPost, "/alerts", createAlertRequest{
			Title:        "Unauthorized",
			Message:      "should fail",
			Category:     "market",
			Severity:     2,
			RequiredTier: "basic",
		})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("invalid category gets 400", func() {
		rr := s.do(adminUser, http.MethodPost, "/alerts", createAlertRequest{
			Title:        "Bad category",
			Message:      "should fail",
			Category:     "weather",
			Severity:     2,
			RequiredTier: "basic",
		})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("malformed body gets 400", func() {
		req := testutil.NewRequest(s.T(), http.MethodPost, "/alerts")
		req = testutil.WithPrincipal(req, adminUser)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestGetAlert() {
	alert := s.createAlert()

	s.Run("found", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/1", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		got := testutil.UnmarshalResponse[alertResponse](s.T(), rr)
		s.Equal(alert.ID, got.ID)
	})

	s.Run("missing gets 404", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/999", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("non-numeric id gets 400", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/abc", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("zero id gets 400", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/0", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestDistributionLifecycle() {
	s.createAlert()

	s.Run("complete once", func() {
		rr := s.do(adminUser, http.MethodPost, "/alerts/1/distribution", completeDistributionRequest{TotalEligible: 500})
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("second completion gets 409", func() {
		rr := s.do(adminUser, http.MethodPost, "/alerts/1/distribution", completeDistributionRequest{TotalEligible: 900})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_completed")
	})

	s.Run("zero eligible gets 400", func() {
		s.createAlert()
		rr := s.do(adminUser, http.MethodPost, "/alerts/2/distribution", completeDistributionRequest{TotalEligible: 0})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("distribution state readable", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/1/distribution", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		dist := testutil.UnmarshalResponse[distributionResponse](s.T(), rr)
		s.True(dist.Completed)
		s.Require().NotNil(dist.TotalEligible)
		s.Equal(uint64(500), *dist.TotalEligible)
	})
}

func (s *HandlerSuite) TestImpactScore() {
	s.createAlert()

	s.Run("non-admin gets 403", func() {
		rr := s.do(user1, http.MethodPut, "/alerts/1/impact", impactScoreRequest{Score: 85})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("out of range gets 400", func() {
		rr := s.do(adminUser, http.MethodPut, "/alerts/1/impact", impactScoreRequest{Score: 150})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("admin sets score", func() {
		rr := s.do(adminUser, http.MethodPut, "/alerts/1/impact", impactScoreRequest{Score: 85})
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

		rr = s.do(user1, http.MethodGet, "/alerts/1", nil)
		got := testutil.UnmarshalResponse[alertResponse](s.T(), rr)
		s.Require().NotNil(got.ImpactScore)
		s.Equal(85, *got.ImpactScore)
	})
}

func (s *HandlerSuite) TestAcknowledgeAndViews() {
	s.createAlert()

	s.Run("first ack succeeds", func() {
		rr := s.do(user1, http.MethodPost, "/alerts/1/acknowledge", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("double ack gets 409", func() {
		rr := s.do(user1, http.MethodPost, "/alerts/1/acknowledge", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "already_acknowledged")
	})

	s.Run("views accumulate", func() {
		for range 3 {
			rr := s.do(user2, http.MethodPost, "/alerts/1/views", nil)
			testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
		}
		rr := s.do(user1, http.MethodGet, "/alerts/1/metrics", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		m := testutil.UnmarshalResponse[metricsResponse](s.T(), rr)
		s.Equal(uint64(3), m.ViewCount)
		s.Equal(uint64(1), m.AcknowledgmentCount)
		s.Nil(m.Coverage)
	})

	s.Run("metrics for missing alert gets 404", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/999/metrics", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestPreferencesAndAccess() {
	s.createAlert() // security, severity 1, basic tier

	s.Run("set preferences", func() {
		rr := s.do(user1, http.MethodPut, "/preferences", preferencesRequest{
			Categories:           []string{"security", "market"},
			MinSeverity:          2,
			EmergencyOverride:    false,
			NotificationsEnabled: true,
		})
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("read back", func() {
		rr := s.do(user1, http.MethodGet, "/preferences/"+user1, nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		pref := testutil.UnmarshalResponse[preferencesResponse](s.T(), rr)
		s.Equal(user1, pref.User)
		s.ElementsMatch([]string{"security", "market"}, pref.Categories)
		s.Equal(2, pref.MinSeverity)
	})

	s.Run("unconfigured user gets absence, not 404", func() {
		rr := s.do(user1, http.MethodGet, "/preferences/stranger", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(false, (*body)["configured"])
	})

	s.Run("invalid threshold gets 400", func() {
		rr := s.do(user2, http.MethodPut, "/preferences", preferencesRequest{
			Categories:  []string{"market"},
			MinSeverity: 20,
		})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("subscribed user has access", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/1/access", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
		s.True((*body)["can_access"])
	})

	s.Run("query parameter overrides the caller", func() {
		rr := s.do(user1, http.MethodGet, "/alerts/1/access?user=stranger", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
		s.False((*body)["can_access"])
	})
}

func (s *HandlerSuite) TestUserTier() {
	s.Run("admin assigns tier", func() {
		rr := s.do(adminUser, http.MethodPut, "/users/"+user1+"/tier", tierRequest{Tier: "elite"})
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
	})

	s.Run("non-admin gets 403", func() {
		rr := s.do(user1, http.MethodPut, "/users/"+user1+"/tier", tierRequest{Tier: "elite"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("unknown tier gets 400", func() {
		rr := s.do(adminUser, http.MethodPut, "/users/"+user1+"/tier", tierRequest{Tier: "gold"})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})
}

func (s *HandlerSuite) TestCategoryPerformance() {
	s.Run("empty category reports zero count", func() {
		rr := s.do(user1, http.MethodGet, "/categories/market/performance", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(float64(0), (*body)["alert_count"])
	})

	s.Run("unknown category gets 400", func() {
		rr := s.do(user1, http.MethodGet, "/categories/weather/performance", nil)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation")
	})

	s.Run("populated category aggregates", func() {
		s.createAlert()
		rr := s.do(user1, http.MethodGet, "/categories/security/performance", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		perf := testutil.UnmarshalResponse[performanceResponse](s.T(), rr)
		s.Equal(1, perf.AlertCount)
	})
}

func (s *HandlerSuite) TestAdmin() {
	s.Run("read admin", func() {
		rr := s.do(user1, http.MethodGet, "/admin", nil)
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal(adminUser, (*body)["admin"])
	})

	s.Run("non-admin transfer gets 403", func() {
		rr := s.do(user1, http.MethodPost, "/admin/transfer", transferAdminRequest{NewAdmin: user1})
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "unauthorized")
	})

	s.Run("admin transfers", func() {
		rr := s.do(adminUser, http.MethodPost, "/admin/transfer", transferAdminRequest{NewAdmin: user2})
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

		rr = s.do(user1, http.MethodGet, "/admin", nil)
		body := testutil.UnmarshalResponse[map[string]string](s.T(), rr)
		s.Equal(user2, (*body)["admin"])
	})
}

func (s *HandlerSuite) TestDeactivateAndCount() {
	s.createAlert()

	rr := s.do(user1, http.MethodGet, "/alerts/1/active", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	body := testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
	s.True((*body)["active"])

	rr = s.do(adminUser, http.MethodPost, "/alerts/1/deactivate", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = s.do(user1, http.MethodGet, "/alerts/1/active", nil)
	body = testutil.UnmarshalResponse[map[string]bool](s.T(), rr)
	s.False((*body)["active"])

	rr = s.do(user1, http.MethodGet, "/alerts/count", nil)
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	count := testutil.UnmarshalResponse[map[string]int](s.T(), rr)
	s.Equal(1, (*count)["count"])
}
