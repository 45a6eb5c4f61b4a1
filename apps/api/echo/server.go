package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/core/notes"
	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/school"
	"github.com/inksight/backend/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		// SignalShutdown is called when a shutdown error is caught.
		SignalShutdown func()

		UserSvc          *user.Service
		SchoolSvc        *school.Service
		CourseSvc        *course.Service
		AccommodationSvc *accommodation.Service
		LectureSvc       *lecture.Service
		NotesSvc         *notes.Service
		PermissionSvc    *permission.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.SignalShutdown == nil {
		opts.SignalShutdown = func() {}
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts)
	registerSchoolAPI(v1, jwt, s.opts)
	registerCourseAPI(v1, jwt, s.opts)
	registerAccommodationAPI(v1, jwt, s.opts)
	registerLectureAPI(v1, jwt, s.opts)
	registerNotesAPI(v1, jwt, s.opts)
	registerPermissionAPI(v1, jwt, s.opts)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to InkSight API!")
}
