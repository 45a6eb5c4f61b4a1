package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/user"
)

type accommodationApi struct {
	opts *Options
}

func registerAccommodationAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := accommodationApi{opts: opts}

	rg := g.Group("/notetaking-requests", jwt)
	rg.POST("", api.submit, roleMiddleware(user.RoleStudent, user.RoleSDSCoordinator))
	rg.GET("", api.query, roleMiddleware(user.RoleSDSCoordinator))
	rg.GET("/:id", api.retrieve)
	rg.PUT("/:id/approve", api.approve, roleMiddleware(user.RoleSDSCoordinator))
	rg.GET("/:student/:course/approved", api.isApproved)

	g.GET("/courses/:id/approved-students", api.approvedStudents, jwt)
}

// submit creates a pending request for an enrollment. A student may only
// submit for themselves.
func (api *accommodationApi) submit(ctx echo.Context) error {
	var data accommodation.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.IsStudent {
		data.StudentID = claims.Subject
	}

	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	req, err := api.opts.AccommodationSvc.Submit(ctx.Request().Context(), data)
	if err != nil {
		if errors.Is(err, accommodation.ErrNotEnrolled) {
			return core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *accommodationApi) query(ctx echo.Context) error {
	filter := new(accommodation.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []accommodation.NoteTakingRequest{})
	}

	reqs, err := api.opts.AccommodationSvc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying note-taking requests")
	}
	if reqs == nil {
		reqs = []accommodation.NoteTakingRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *accommodationApi) retrieve(ctx echo.Context) error {
	req, err := api.opts.AccommodationSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, accommodation.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting note-taking request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *accommodationApi) approve(ctx echo.Context) error {
	req, err := api.opts.AccommodationSvc.Approve(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, accommodation.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "approving note-taking request")
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *accommodationApi) isApproved(ctx echo.Context) error {
	approved, err := api.opts.AccommodationSvc.IsApproved(ctx.Request().Context(), ctx.Param("student"), ctx.Param("course"))
	if err != nil {
		return errors.Wrap(err, "checking approval")
	}
	return ctx.JSON(http.StatusOK, ApprovalResponse{Approved: approved})
}

func (api *accommodationApi) approvedStudents(ctx echo.Context) error {
	users, err := api.opts.AccommodationSvc.ApprovedStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying approved students")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

type ApprovalResponse struct {
	Approved bool `json:"approved"`
}
