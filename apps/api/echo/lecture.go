package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/core/user"
)

type lectureApi struct {
	opts *Options
}

func registerLectureAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := lectureApi{opts: opts}

	teaching := roleMiddleware(user.RoleProfessor, user.RoleTeacherAssistant, user.RoleSDSCoordinator)

	lg := g.Group("/lecture-sessions", jwt)
	lg.POST("", api.createSession, teaching)
	lg.GET("", api.querySessions)
	lg.GET("/:id", api.retrieveSession)
	lg.PUT("/:id/update", api.updateStatus, teaching)
	lg.POST("/:id/recordings", api.addRecording, teaching)
	lg.GET("/:id/recordings", api.queryRecordings)

	g.GET("/courses/:id/current-lecture-session", api.currentSession, jwt)
	g.POST("/courses/:id/upload-slides", api.uploadSlides, jwt, teaching)
	g.POST("/lecture-slides/:id/associate", api.associateSlides, jwt, teaching)
}

func (api *lectureApi) createSession(ctx echo.Context) error {
	var data lecture.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	ses, err := api.opts.LectureSvc.CreateSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lecture session")
	}
	return ctx.JSON(http.StatusCreated, ses)
}

func (api *lectureApi) querySessions(ctx echo.Context) error {
	filter := new(lecture.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []lecture.LectureSession{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	sessions, err := api.opts.LectureSvc.QuerySessions(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying lecture sessions")
	}
	if sessions == nil {
		sessions = []lecture.LectureSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *lectureApi) retrieveSession(ctx echo.Context) error {
	ses, err := api.opts.LectureSvc.GetSessionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, lecture.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting lecture session")
	}
	return ctx.JSON(http.StatusOK, ses)
}

func (api *lectureApi) updateStatus(ctx echo.Context) error {
	var data UpdateSessionStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSessionStatusRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	ses, err := api.opts.LectureSvc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		if errors.Is(err, lecture.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lecture session status")
	}
	return ctx.JSON(http.StatusOK, ses)
}

func (api *lectureApi) currentSession(ctx echo.Context) error {
	ses, err := api.opts.LectureSvc.CurrentSessionForCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, lecture.ErrNoCurrentSession) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting current lecture session")
	}
	return ctx.JSON(http.StatusOK, ses)
}

func (api *lectureApi) addRecording(ctx echo.Context) error {
	var data lecture.NewRecording
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecording")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	rec, err := api.opts.LectureSvc.AddRecording(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Is(err, lecture.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding recording")
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *lectureApi) queryRecordings(ctx echo.Context) error {
	recs, err := api.opts.LectureSvc.RecordingsForSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying recordings")
	}
	if recs == nil {
		recs = []lecture.RecordingSession{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *lectureApi) uploadSlides(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	f, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	sl, err := api.opts.LectureSvc.UploadSlides(ctx.Request().Context(), ctx.Param("id"), fileHdr.Filename, f)
	if err != nil {
		return errors.Wrap(err, "uploading slides")
	}
	return ctx.JSON(http.StatusCreated, sl)
}

func (api *lectureApi) associateSlides(ctx echo.Context) error {
	var data AssociateSlidesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssociateSlidesRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	sl, err := api.opts.LectureSvc.AssociateSlides(ctx.Request().Context(), ctx.Param("id"), data.LectureSessionID)
	if err != nil {
		if errors.Is(err, lecture.ErrSlidesNotFound) || errors.Is(err, lecture.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "associating slides")
	}
	return ctx.JSON(http.StatusOK, sl)
}

type (
	UpdateSessionStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	AssociateSlidesRequest struct {
		LectureSessionID string `json:"lecture_session_id" validate:"required"`
	}
)

func (r *UpdateSessionStatusRequest) Validate(validate *validator.Validate) error {
	r.Status = core.CleanString(r.Status)
	return validate.Struct(r)
}

func (r *AssociateSlidesRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
