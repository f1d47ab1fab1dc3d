package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/feedbackkit/internal/client/endpoints"
	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/netx"
)

// ---- fakes ----

type fakeAuth struct {
	mu         sync.Mutex
	token      string
	next       string
	refreshErr error
	accessErr  error
	refreshes  int
}

func (f *fakeAuth) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token, f.accessErr
}

func (f *fakeAuth) RefreshedToken(context.Context, string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.next
	return f.token, nil
}

type fixedDevice string

func (d fixedDevice) InstallationID(context.Context) (string, error) { return string(d), nil }

// backend is an httptest server routed with gorilla/mux that records every
// request it sees.
type backend struct {
	*httptest.Server
	router *mux.Router

	mu       sync.Mutex
	requests []*http.Request
	bodies   [][]byte
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{router: mux.NewRouter()}
	b.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			b.mu.Lock()
			b.requests = append(b.requests, r.Clone(context.Background()))
			b.bodies = append(b.bodies, body)
			b.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	b.Server = httptest.NewServer(b.router)
	t.Cleanup(b.Close)
	return b
}

func (b *backend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *backend) request(i int) (*http.Request, []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[i], b.bodies[i]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T, b *backend, auth Authenticator, opts ...ServerOption) *Server {
	t.Helper()
	s, err := NewServer(ServerConfig{
		APIRoot:       b.URL + "/v1",
		TenantID:      "tenant-1",
		ApplicationID: "app-1",
		Locale:        "en_US",
	}, netx.NewHTTPTransport(nil, 5*time.Second), auth, opts...)
	require.NoError(t, err)
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

// ---- tests ----

func TestNewServer_Validation(t *testing.T) {
	_, err := NewServer(ServerConfig{}, netx.NewHTTPTransport(nil, 0), &fakeAuth{})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewServer(ServerConfig{APIRoot: "http://x"}, nil, &fakeAuth{})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestHit_SuccessBuildsRequest(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{tenant}/applications/{app}/releases", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AppReleaseCollection{
			CollectionMeta: models.CollectionMeta{TotalCount: 1},
			Data:           []models.AppReleaseStub{{ID: "r1", Name: "First"}},
		})
	}).Methods(http.MethodGet)

	s := newTestServer(t, b, &fakeAuth{token: "tok-1"})

	res := Hit[models.AppReleaseCollection](context.Background(), s, endpoints.GetPaginateReleases,
		WithQuery("limit", "15"), WithQuery("offset", "0"))
	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, Attributes(0), res.Attributes)
	require.Len(t, res.Value.Data, 1)
	assert.Equal(t, "r1", res.Value.Data[0].ID)

	req, body := b.request(0)
	assert.Equal(t, "/v1/tenants/tenant-1/applications/app-1/releases", req.URL.Path)
	assert.Equal(t, "15", req.URL.Query().Get("limit"))
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
	assert.Equal(t, common.PlatformAgent, req.Header.Get(common.HeaderPlatformAgent))
	assert.Equal(t, common.SDKVersion, req.Header.Get(common.HeaderSDKVersion))
	assert.Equal(t, "tenant-1", req.Header.Get(common.HeaderTenantID))
	assert.Equal(t, "app-1", req.Header.Get(common.HeaderApplicationID))
	assert.Empty(t, req.Header.Get(common.HeaderDeviceID), "not a tracking endpoint")
	assert.Empty(t, body, "GET carries no body")
}

func TestHit_TrackingHeaders(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{tenant}/applications/{app}/app-info", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.AppInfo{})
	})

	s := newTestServer(t, b, &fakeAuth{token: "t"}, WithDeviceIdentity(fixedDevice("device-9")))

	res := Hit[models.AppInfo](context.Background(), s, endpoints.GetAppInfo)
	require.NoError(t, res.Err)

	req, _ := b.request(0)
	assert.Equal(t, "device-9", req.Header.Get(common.HeaderDeviceID))
	assert.Equal(t, "en_US", req.Header.Get(common.HeaderDeviceLocale))
	assert.NotEmpty(t, req.Header.Get(common.HeaderDeviceTimeZoneOffset))
}

func TestHit_PostBody(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/feedback/forms/{id}/submit", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	b.router.HandleFunc("/v1/tenants/{t}/tickets/{id}/vote", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)

	s := newTestServer(t, b, &fakeAuth{token: "t"})

	res := Hit[models.EmptyResponse](context.Background(), s, endpoints.PostSubmitFeedbackForm,
		WithPathParam("formId", "form-1"),
		WithBody(map[string]any{"rating": 5}))
	require.NoError(t, res.Err)

	req, body := b.request(0)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"rating":5}`, string(body))

	res = Hit[models.EmptyResponse](context.Background(), s, endpoints.PostVoteForTicket, WithPathParam("ticketId", "t1"))
	require.NoError(t, res.Err)
	_, body = b.request(1)
	assert.JSONEq(t, `{}`, string(body), "POST without body sends an empty object")
}

func TestHit_NoContentDecodesEmptyObject(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/tickets/{id}/vote", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	s := newTestServer(t, b, &fakeAuth{token: "t"})

	res := Hit[map[string]any](context.Background(), s, endpoints.DeleteVoteForTicket, WithPathParam("ticketId", "t1"))
	require.NoError(t, res.Err)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.NotNil(t, res.Value)
	assert.Empty(t, res.Value)
}

func TestHit_MissingPathParam(t *testing.T) {
	b := newBackend(t)
	s := newTestServer(t, b, &fakeAuth{token: "t"})

	res := Hit[models.AppRelease](context.Background(), s, endpoints.GetRelease)
	require.Error(t, res.Err)
	assert.Equal(t, 0, b.count())
}

func TestHit_ReauthenticatesOnceOn401(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/auth/user-info", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, models.UserInfo{User: models.User{ID: "u1"}})
	})

	auth := &fakeAuth{token: "stale", next: "fresh"}
	s := newTestServer(t, b, auth)

	res := Hit[models.UserInfo](context.Background(), s, endpoints.GetUserInfo)
	require.NoError(t, res.Err)
	assert.Equal(t, "u1", res.Value.User.ID)
	assert.True(t, res.Attributes.Has(RequiredReauthentication))
	assert.Equal(t, 1, auth.refreshes)
	assert.Equal(t, 2, b.count())

	first, _ := b.request(0)
	second, _ := b.request(1)
	assert.Equal(t, "Bearer stale", first.Header.Get("Authorization"))
	assert.Equal(t, "Bearer fresh", second.Header.Get("Authorization"))
}

func TestHit_SecondUnauthorizedIsTerminal(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/auth/user-info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	auth := &fakeAuth{token: "stale", next: "still-bad"}
	s := newTestServer(t, b, auth)

	res := Hit[models.UserInfo](context.Background(), s, endpoints.GetUserInfo)
	require.Error(t, res.Err)
	assert.Equal(t, common.KindAuthenticationFailed, common.KindOf(res.Err))
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, 1, auth.refreshes, "never more than one reauthentication per call")
	assert.Equal(t, 2, b.count())
}

func TestHit_RefreshFailure(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/auth/user-info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	auth := &fakeAuth{token: "stale", refreshErr: common.AuthenticationFailed("provider down")}
	s := newTestServer(t, b, auth)

	res := Hit[models.UserInfo](context.Background(), s, endpoints.GetUserInfo)
	require.Error(t, res.Err)
	assert.Equal(t, common.KindAuthenticationFailed, common.KindOf(res.Err))
	assert.True(t, res.Attributes.Has(RequiredReauthentication))
	assert.Equal(t, 1, b.count())
}

func TestHit_ReauthenticationDisabled(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/auth/user-info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	auth := &fakeAuth{token: "stale", next: "fresh"}
	s := newTestServer(t, b, auth)

	cfg := DefaultRequestConfig()
	cfg.Reauthenticate = false
	res := Hit[models.UserInfo](context.Background(), s, endpoints.GetUserInfo, WithRequestConfig(cfg))
	require.Error(t, res.Err)
	assert.Equal(t, 0, auth.refreshes)
	assert.Equal(t, 1, b.count())
}

func TestHit_AccessTokenFailureSendsNothing(t *testing.T) {
	b := newBackend(t)
	s := newTestServer(t, b, &fakeAuth{accessErr: common.AuthenticationFailed("no provider")})

	res := Hit[models.UserInfo](context.Background(), s, endpoints.GetUserInfo)
	require.Error(t, res.Err)
	assert.Equal(t, 0, b.count())
}

func TestHit_GuestAllowedSendsWithoutToken(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/roadmap", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.RoadmapConfiguration{Tabs: []models.RoadmapTab{{Key: "live"}}})
	})
	auth := &fakeAuth{accessErr: common.AuthenticationFailed("no provider")}
	s := newTestServer(t, b, auth)

	res := Hit[models.RoadmapConfiguration](context.Background(), s, endpoints.GetRoadmap)
	require.NoError(t, res.Err)
	assert.Equal(t, "live", res.Value.Tabs[0].Key)

	req, _ := b.request(0)
	assert.Empty(t, req.Header.Get(common.AuthorizationHeaderName))
	assert.Equal(t, 0, auth.refreshes)
}

func TestHit_GuestAllowedStillFailsOnStoreError(t *testing.T) {
	b := newBackend(t)
	s := newTestServer(t, b, &fakeAuth{accessErr: common.System(errors.New("disk gone"))})

	res := Hit[models.RoadmapConfiguration](context.Background(), s, endpoints.GetRoadmap)
	require.Error(t, res.Err)
	assert.Equal(t, 0, b.count())
}

func TestHit_ClientErrorIsNetworkError(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/releases/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"type": "not_found", "message": "Release not found"})
	})

	s := newTestServer(t, b, &fakeAuth{token: "t"})

	res := Hit[models.AppRelease](context.Background(), s, endpoints.GetRelease, WithPathParam("releaseId", "nope"))
	require.Error(t, res.Err)

	var ne *common.NetworkError
	require.True(t, errors.As(res.Err, &ne))
	assert.Equal(t, http.StatusNotFound, ne.StatusCode)
	assert.Equal(t, http.MethodGet, ne.Method)
	assert.Contains(t, ne.URL, "/releases/nope")
	assert.Equal(t, "Release not found", common.UserMessage(res.Err))
	assert.Equal(t, 1, b.count(), "4xx is not retried")
}

func TestHit_ServerErrorRetries(t *testing.T) {
	t.Run("exhausted", func(t *testing.T) {
		b := newBackend(t)
		b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/roadmap", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		s := newTestServer(t, b, &fakeAuth{token: "t"})

		res := Hit[models.RoadmapConfiguration](context.Background(), s, endpoints.GetRoadmap,
			WithRequestConfig(RequestConfig{Reauthenticate: true, Retries: 2, RetryDelay: time.Millisecond}))
		require.Error(t, res.Err)
		assert.Equal(t, 3, b.count())
		assert.True(t, res.Attributes.Has(RequiredRetry))
		assert.True(t, res.Attributes.Has(ExceededRetryLimit))
		assert.Equal(t, common.KindNetwork, common.KindOf(res.Err))
	})

	t.Run("recovers", func(t *testing.T) {
		b := newBackend(t)
		var n int32
		b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/roadmap", func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&n, 1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, models.RoadmapConfiguration{Tabs: []models.RoadmapTab{{Key: "open"}}})
		})
		s := newTestServer(t, b, &fakeAuth{token: "t"})

		res := Hit[models.RoadmapConfiguration](context.Background(), s, endpoints.GetRoadmap,
			WithRequestConfig(RequestConfig{Reauthenticate: true, Retries: 3}))
		require.NoError(t, res.Err)
		assert.Equal(t, 2, b.count())
		assert.True(t, res.Attributes.Has(RequiredRetry))
		assert.False(t, res.Attributes.Has(ExceededRetryLimit))
	})

	t.Run("no retry by default", func(t *testing.T) {
		b := newBackend(t)
		b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/roadmap", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		s := newTestServer(t, b, &fakeAuth{token: "t"})

		res := Hit[models.RoadmapConfiguration](context.Background(), s, endpoints.GetRoadmap)
		require.Error(t, res.Err)
		assert.Equal(t, 1, b.count())
		assert.Equal(t, Attributes(0), res.Attributes)
	})
}

func TestHit_RetryDelayHonoursContext(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/roadmap", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	s := newTestServer(t, b, &fakeAuth{token: "t"})
	s.sleep = sleepContext

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := Hit[models.RoadmapConfiguration](ctx, s, endpoints.GetRoadmap,
		WithRequestConfig(RequestConfig{Reauthenticate: true, Retries: 5, RetryDelay: time.Hour}))
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHit_TransportFailure(t *testing.T) {
	b := newBackend(t)
	s := newTestServer(t, b, &fakeAuth{token: "t"})
	b.Close()

	res := Hit[models.AppInfo](context.Background(), s, endpoints.GetAppInfo)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, ErrUnavailable)
	assert.Equal(t, 0, res.StatusCode)
}

func TestHit_DecodeFailure(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/app-info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	s := newTestServer(t, b, &fakeAuth{token: "t"})

	res := Hit[models.AppInfo](context.Background(), s, endpoints.GetAppInfo)
	require.Error(t, res.Err)
	assert.Equal(t, common.KindJSON, common.KindOf(res.Err))
}

func TestHit_CachePolicies(t *testing.T) {
	b := newBackend(t)
	var version int32
	b.router.HandleFunc("/v1/tenants/{t}/applications/{a}/faqs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int32{"version": atomic.AddInt32(&version, 1)})
	})
	s := newTestServer(t, b, &fakeAuth{token: "t"})
	ctx := context.Background()

	get := func(p CachePolicy) int32 {
		res := Hit[map[string]int32](ctx, s, endpoints.GetFaqs, WithCachePolicy(p))
		require.NoError(t, res.Err)
		return res.Value["version"]
	}

	assert.EqualValues(t, 1, get(UseProtocolCachePolicy))
	assert.EqualValues(t, 2, get(ReturnCacheDataElseLoad), "nothing cached yet")
	assert.EqualValues(t, 2, get(ReturnCacheDataElseLoad), "served from cache")
	assert.EqualValues(t, 3, get(ReloadIgnoringCache))
	assert.EqualValues(t, 3, get(ReturnCacheDataElseLoad), "reload refreshed the cache")
	assert.EqualValues(t, 4, get(UseProtocolCachePolicy))
	assert.Equal(t, 4, b.count())

	s.ClearCache()
	assert.EqualValues(t, 5, get(ReturnCacheDataElseLoad))
}

func TestHitUpload(t *testing.T) {
	b := newBackend(t)
	b.router.HandleFunc("/v1/tenants/{t}/users/avatar", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f, hdr, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		writeJSON(w, http.StatusOK, map[string]any{"name": hdr.Filename, "size": len(data)})
	}).Methods(http.MethodPost)

	auth := &fakeAuth{token: "stale", next: "fresh"}
	s := newTestServer(t, b, auth)

	var calls int32
	b.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	res := HitUpload[map[string]any](context.Background(), s, endpoints.PostUpdateAvatar, []netx.FormField{
		{Name: "image", FileName: "avatar.png", ContentType: "image/png", Data: []byte("PNGDATA")},
	})
	require.NoError(t, res.Err)
	assert.Equal(t, "avatar.png", res.Value["name"])
	assert.EqualValues(t, 7, res.Value["size"])
	assert.True(t, res.Attributes.Has(RequiredReauthentication), "upload body is resent after reauthentication")
}

func TestAttributes_String(t *testing.T) {
	assert.Equal(t, "", Attributes(0).String())
	assert.Equal(t, "required_reauthentication|exceeded_retry_limit",
		(RequiredReauthentication | ExceededRetryLimit).String())
}
