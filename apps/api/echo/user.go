package echoapi

import (
	"net/http"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/user"
)

var errUsrNotFoundInCtx = errors.New("user object not found in echo.Context")

type userApi struct {
	opts *Options
}

// rolePaths maps each identity collection to its role variant.
var rolePaths = []struct {
	path string
	role user.Role
}{
	{"/students", user.RoleStudent},
	{"/professors", user.RoleProfessor},
	{"/tas", user.RoleTeacherAssistant},
	{"/sdscoordinators", user.RoleSDSCoordinator},
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := userApi{opts: opts}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("", api.query, roleMiddleware(user.RoleSDSCoordinator))
	ag.DELETE("", api.destroyMultiple, roleMiddleware(user.RoleSDSCoordinator))

	// detail endpoints
	dg := ag.Group("/:id", ctxUserOrCoordinatorMiddleware(opts.UserSvc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, roleMiddleware(user.RoleSDSCoordinator))

	// per-role signup and collections; signup is open, listing is not
	for _, rp := range rolePaths {
		rp := rp
		rg := g.Group(rp.path)
		rg.POST("", api.createWithRole(rp.role))
		rg.GET("", api.queryRole(rp.role), jwt, roleMiddleware(user.RoleSDSCoordinator))
		rg.GET("/:id", api.retrieveWithRole(rp.role), jwt)
	}
}

// Handlers

// createWithRole is the signup handler for one identity collection; the
// collection fixes the role regardless of the request body. A fresh identity
// also gets its default permissions ledger row.
func (api *userApi) createWithRole(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data user.NewUser
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewUser")
		}
		data.Role = role
		if err := data.Validate(ctx.Request().Context(), api.opts.Validate, api.opts.UserSvc); err != nil {
			return err
		}

		usr, err := api.opts.UserSvc.Create(ctx.Request().Context(), data)
		if err != nil {
			return errors.Wrap(err, "creating user")
		}

		if _, err = api.opts.PermissionSvc.AssignDefault(ctx.Request().Context(), usr); err != nil {
			// identity exists; the ledger backfill command can repair this
			ctx.Logger().Errorf("assigning default permissions: %+v", err)
		}

		return ctx.JSON(http.StatusCreated, usr)
	}
}

func (api *userApi) queryRole(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		filter := new(user.QueryFilter)
		if err := ctx.Bind(filter); err != nil {
			return ctx.JSON(http.StatusOK, []user.User{})
		}
		filter.Clean()
		filter.Role = role
		ordering := new(Ordering)
		ordering.Bind(ctx)

		users, err := api.opts.UserSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
		if err != nil {
			return errors.Wrap(err, "querying users")
		}
		if users == nil {
			users = []user.User{}
		}
		return ctx.JSON(http.StatusOK, users)
	}
}

func (api *userApi) retrieveWithRole(role user.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := api.opts.UserSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil || usr.Role != role {
			return errHttpNotFound
		}
		return ctx.JSON(http.StatusOK, usr)
	}
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.opts.UserSvc)
	if err != nil {
		return err
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.opts.UserSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}

	ctxUsr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !ctxUsr.IsSDSCoordinator() {
		// `IsActive` and `Email` can only be changed by an SDS coordinator
		if data.IsActive != nil || data.Email != "" {
			return errHttpForbidden
		}
	}

	if err := data.Validate(ctx.Request().Context(), usr, api.opts.Validate, api.opts.UserSvc); err != nil {
		return err
	}

	usr, err = api.opts.UserSvc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}

	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	usr, ok := ctx.Get("object").(user.User)
	if !ok {
		return errors.Wrap(errUsrNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.ID == ctxUsr.ID {
		return errHttpForbidden
	}

	if err := api.opts.UserSvc.Delete(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxUsr.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxUsr.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.opts.UserSvc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func ctxUserOrCoordinatorMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsSDSCoordinator() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", usr)
					return next(ctx)
				} else if !errors.Is(err, user.ErrNotFound) {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}
