package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/user"
)

type permissionApi struct {
	opts *Options
}

func registerPermissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := permissionApi{opts: opts}

	pg := g.Group("/permissions", jwt)
	pg.POST("", api.assignDefault, roleMiddleware(user.RoleSDSCoordinator))
	pg.GET("", api.query, roleMiddleware(user.RoleSDSCoordinator))
	pg.GET("/:role/:id", api.retrieveForSubject)
	pg.PUT("/:id", api.update, roleMiddleware(user.RoleSDSCoordinator))
}

// assignDefault (re-)applies the role template for one identity. Re-applying
// replaces the row wholesale, so this doubles as a per-identity reset.
func (api *permissionApi) assignDefault(ctx echo.Context) error {
	var data AssignPermissionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignPermissionsRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	usr, err := api.opts.UserSvc.GetByID(ctx.Request().Context(), data.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting user")
	}

	ent, err := api.opts.PermissionSvc.AssignDefault(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "assigning default permissions")
	}
	return ctx.JSON(http.StatusCreated, ent)
}

func (api *permissionApi) query(ctx echo.Context) error {
	entries, err := api.opts.PermissionSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying permissions")
	}
	if entries == nil {
		entries = []permission.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

// retrieveForSubject serves portal capability checks; an identity may read
// its own entry, a coordinator may read any.
func (api *permissionApi) retrieveForSubject(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Subject != ctx.Param("id") && !claims.IsSDSCoordinator {
		return errHttpForbidden
	}

	ent, err := api.opts.PermissionSvc.GetForSubject(ctx.Request().Context(), user.Role(ctx.Param("role")), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, permission.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting permissions entry")
	}
	return ctx.JSON(http.StatusOK, ent)
}

func (api *permissionApi) update(ctx echo.Context) error {
	var data UpdatePermissionsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePermissionsRequest")
	}

	ent, err := api.opts.PermissionSvc.Update(ctx.Request().Context(), ctx.Param("id"), data.Flags)
	if err != nil {
		if errors.Is(err, permission.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating permissions entry")
	}
	return ctx.JSON(http.StatusOK, ent)
}

type (
	AssignPermissionsRequest struct {
		UserID string `json:"user_id" validate:"required"`
	}

	UpdatePermissionsRequest struct {
		permission.Flags
	}
)

func (r *AssignPermissionsRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
