package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/user"
)

type courseApi struct {
	opts *Options
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := courseApi{opts: opts}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, roleMiddleware(user.RoleSDSCoordinator))
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/students", api.queryStudents)
	cg.GET("/:id/professors", api.queryProfessors)

	// course linking; a new course may be created on the fly by name
	g.POST("/students/:id/courses/add", api.addStudentCourse, jwt)
	g.GET("/students/:id/courses", api.queryStudentCourses, jwt)
	g.POST("/professors/:id/courses/add", api.addProfessorCourse, jwt)
	g.GET("/professors/:id/courses", api.queryProfessorCourses, jwt)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	crs, err := api.opts.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.opts.CourseSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.opts.CourseSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) queryStudents(ctx echo.Context) error {
	users, err := api.opts.CourseSvc.StudentsForCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *courseApi) queryProfessors(ctx echo.Context) error {
	users, err := api.opts.CourseSvc.ProfessorsForCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course professors")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

// addStudentCourse links a student to a course by name, creating the course
// within the school if it does not exist yet. Only the student themselves or
// an SDS coordinator may do this.
func (api *courseApi) addStudentCourse(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if err := api.checkSelfOrCoordinator(ctx, studentID); err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	crs, err := api.opts.CourseSvc.GetOrCreate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "getting or creating course")
	}
	enr, err := api.opts.CourseSvc.Enroll(ctx.Request().Context(), studentID, crs.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AddStudentCourseResponse{Course: crs, Enrollment: enr})
}

func (api *courseApi) queryStudentCourses(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if err := api.checkSelfOrCoordinator(ctx, studentID); err != nil {
		return err
	}

	courses, err := api.opts.CourseSvc.CoursesForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) addProfessorCourse(ctx echo.Context) error {
	professorID := ctx.Param("id")
	if err := api.checkSelfOrCoordinator(ctx, professorID); err != nil {
		return err
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	crs, err := api.opts.CourseSvc.GetOrCreate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "getting or creating course")
	}
	asg, err := api.opts.CourseSvc.AssignProfessor(ctx.Request().Context(), professorID, crs.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, AddProfessorCourseResponse{Course: crs, Assignment: asg})
}

func (api *courseApi) queryProfessorCourses(ctx echo.Context) error {
	courses, err := api.opts.CourseSvc.CoursesForProfessor(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying professor courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) checkSelfOrCoordinator(ctx echo.Context, subjectID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if claims.Subject != subjectID && !claims.IsSDSCoordinator {
		return errHttpForbidden
	}
	return nil
}

type (
	AddStudentCourseResponse struct {
		Course     course.Course        `json:"course"`
		Enrollment course.StudentCourse `json:"enrollment"`
	}

	AddProfessorCourseResponse struct {
		Course     course.Course          `json:"course"`
		Assignment course.ProfessorCourse `json:"assignment"`
	}
)
