package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/school"
	"github.com/inksight/backend/core/user"
)

type schoolApi struct {
	opts *Options
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := schoolApi{opts: opts}

	sg := g.Group("/schools", jwt)
	sg.POST("", api.create, roleMiddleware(user.RoleSDSCoordinator))
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update, roleMiddleware(user.RoleSDSCoordinator))
	sg.DELETE("/:id", api.destroy, roleMiddleware(user.RoleSDSCoordinator))
	sg.GET("/:id/courses", api.queryCourses)
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	sch, err := api.opts.SchoolSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) query(ctx echo.Context) error {
	schools, err := api.opts.SchoolSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.School{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, err := api.opts.SchoolSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, school.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	sch, err := api.opts.SchoolSvc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Is(err, school.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	if err := api.opts.SchoolSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	courses, err := api.opts.CourseSvc.CoursesForSchool(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying school courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}
