package site

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"uttt-node/node/config"

	"github.com/stretchr/testify/require"
)

func siteFixture(t *testing.T, protected bool) *SiteServer {
	t.Helper()

	dist := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html>uttt</html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dist, ".nojekyll"), nil, 0644))

	cfg := &config.Site{
		ListenAddress:  "127.0.0.1:0",
		TokenProtected: protected,
		TokenPeriod:    time.Hour,
	}
	return NewSiteServer(cfg, dist, []byte("test-secret-test-secret-test-sec"))
}

func get(s *SiteServer, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Server.ServeHTTP(rec, req)
	return rec
}

func TestSiteServesDist(t *testing.T) {
	s := siteFixture(t, false)

	rec := get(s, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "uttt")

	rec = get(s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(s, "/missing.js")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSiteShareTokenProtection(t *testing.T) {
	s := siteFixture(t, true)

	// healthz stays open
	rec := get(s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(s, "/")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = get(s, "/?token=garbage")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := s.GenerateToken("reviewer")
	require.NoError(t, err)
	rec = get(s, "/?token="+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "uttt")

	// the token is carried forward in a cookie for asset loads
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	req.AddCookie(cookies[0])
	recorder := httptest.NewRecorder()
	s.Server.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestSiteRejectsTokenFromOtherSecret(t *testing.T) {
	s := siteFixture(t, true)
	other := siteFixture(t, true)
	other.secret = []byte("another-secret-another-secret-an")

	token, err := other.GenerateToken("reviewer")
	require.NoError(t, err)

	rec := get(s, "/?token="+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
