package site

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"uttt-node/node/config"
	"uttt-node/types"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("site")

// SiteServer previews the latest build output over http: whatever the
// pipeline last wrote to dist/ is what a browser sees before (or without)
// the pages publish.
type SiteServer struct {
	Cfg      *config.Site
	Server   *echo.Echo
	distPath string
	secret   []byte
}

type shareClaims struct {
	Viewer string `json:"viewer"`
	jwt.StandardClaims
}

func NewSiteServer(cfg *config.Site, distPath string, secret []byte) *SiteServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if cfg.EnableSiteLog {
		// Middleware
		e.Use(middleware.Logger())
		e.Use(middleware.Recover())
	}

	s := &SiteServer{
		Cfg:      cfg,
		Server:   e,
		distPath: distPath,
		secret:   secret,
	}

	e.GET("/healthz", health)

	static := e.Group("")
	if cfg.TokenProtected {
		static.Use(s.requireShareToken)
		// Group.Use pins a not-found handler on the bare group route,
		// shadowing the static catch-all for "/". Route the index explicitly.
		static.File("/", filepath.Join(distPath, "index.html"))
	}
	static.Static("/", distPath)

	return s
}

func (s *SiteServer) Start() error {
	log.Infof("site server listening on %s, serving %s", s.Cfg.ListenAddress, s.distPath)
	go func() {
		err := s.Server.Start(s.Cfg.ListenAddress)
		if err != nil {
			if strings.Contains(err.Error(), "Server closed") {
				log.Info("stopping site server...")
			} else {
				log.Error(err.Error())
			}
		}
	}()
	return nil
}

func (s *SiteServer) Stop(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}

// GenerateToken mints a share token a reviewer can append as ?token= to
// preview a protected site.
func (s *SiteServer) GenerateToken(viewer string) (string, error) {
	period := s.Cfg.TokenPeriod
	if period <= 0 {
		period = 24 * time.Hour
	}

	claims := &shareClaims{
		viewer,
		jwt.StandardClaims{
			Id:        uuid.New().String(),
			ExpiresAt: time.Now().Add(period).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.secret)
	if err != nil {
		return "", types.Wrap(types.ErrGenerateTokenFailed, err)
	}
	return tokenStr, nil
}

func (s *SiteServer) requireShareToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenStr := c.QueryParam("token")
		if tokenStr == "" {
			if cookie, err := c.Cookie("uttt-share"); err == nil {
				tokenStr = cookie.Value
			}
		}
		if tokenStr == "" {
			return c.String(http.StatusUnauthorized, "share token required")
		}

		claims := &shareClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			return c.String(http.StatusUnauthorized, "invalid share token")
		}

		// keep the token in a cookie so relative asset loads work
		c.SetCookie(&http.Cookie{
			Name:  "uttt-share",
			Value: tokenStr,
			Path:  "/",
		})
		return next(c)
	}
}

func health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
