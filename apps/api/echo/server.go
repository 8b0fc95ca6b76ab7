package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/lopay/core"
	"github.com/trezcool/lopay/core/account"
	"github.com/trezcool/lopay/core/enrollment"
	"github.com/trezcool/lopay/core/ledger"
	"github.com/trezcool/lopay/core/notification"
	"github.com/trezcool/lopay/core/school"
)

type (
	ServerDeps struct {
		Conf   *core.Config
		Logger core.Logger

		AccountSvc    account.ServiceInterface
		SchoolSvc     *school.Service
		EnrollmentSvc *enrollment.Service
		LedgerEng     *ledger.Engine
		NotifSvc      *notification.Service

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	auth := newJWTAuth(conf, s.deps.AccountSvc)
	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(auth.config())

	registerAccountAPI(v1, jwt, auth, s.deps)
	registerSchoolAPI(v1, jwt, auth, s.deps)
	registerEnrollmentAPI(v1, jwt, auth, s.deps)
	registerPaymentAPI(v1, jwt, auth, s.deps)
	registerNotificationAPI(v1, jwt, auth, s.deps)
	registerSessionAPI(v1, jwt, auth, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errCh
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown lets the error handler trigger a graceful stop on
// unrecoverable errors.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Lopay API!")
}
