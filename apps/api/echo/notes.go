package echoapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/inksight/backend/core/notes"
	"github.com/inksight/backend/core/user"
)

type notesApi struct {
	opts *Options
}

func registerNotesAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := notesApi{opts: opts}

	editing := roleMiddleware(user.RoleProfessor, user.RoleTeacherAssistant, user.RoleSDSCoordinator)

	ng := g.Group("/notes-packets", jwt)
	ng.POST("", api.createPacket, editing)
	ng.GET("", api.queryPackets)
	ng.GET("/:id", api.retrievePacket)
	ng.POST("/:id/update", api.updateStatus, editing)
	ng.POST("/:id/edit", api.editNotes, editing)

	g.GET("/courses/:id/notes-packets", api.publishedForCourse, jwt)

	sg := g.Group("/students/:id/note-packets", jwt)
	sg.POST("", api.createStudentPacket)
	sg.GET("", api.queryStudentPackets)

	g.POST("/note-packets/:id/edit", api.editStudentPacket, jwt)
}

func (api *notesApi) createPacket(ctx echo.Context) error {
	var data notes.NewPacket
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPacket")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	pkt, err := api.opts.NotesSvc.CreatePacket(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notes packet")
	}
	return ctx.JSON(http.StatusCreated, pkt)
}

func (api *notesApi) queryPackets(ctx echo.Context) error {
	filter := new(notes.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []notes.NotesPacket{})
	}

	packets, err := api.opts.NotesSvc.QueryPackets(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying notes packets")
	}
	if packets == nil {
		packets = []notes.NotesPacket{}
	}
	return ctx.JSON(http.StatusOK, packets)
}

func (api *notesApi) retrievePacket(ctx echo.Context) error {
	pkt, err := api.opts.NotesSvc.GetPacketByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting notes packet")
	}
	return ctx.JSON(http.StatusOK, pkt)
}

func (api *notesApi) updateStatus(ctx echo.Context) error {
	var data UpdatePacketStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePacketStatusRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	pkt, err := api.opts.NotesSvc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating notes packet status")
	}
	return ctx.JSON(http.StatusOK, pkt)
}

func (api *notesApi) editNotes(ctx echo.Context) error {
	var data EditNotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditNotesRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	pkt, err := api.opts.NotesSvc.UpdateNotes(ctx.Request().Context(), ctx.Param("id"), data.Notes)
	if err != nil {
		if errors.Is(err, notes.ErrNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "editing notes packet")
	}
	return ctx.JSON(http.StatusOK, pkt)
}

// publishedForCourse lists only published packets; drafts and packets under
// edits stay invisible to students.
func (api *notesApi) publishedForCourse(ctx echo.Context) error {
	packets, err := api.opts.NotesSvc.PublishedForCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying published notes packets")
	}
	if packets == nil {
		packets = []notes.NotesPacket{}
	}
	return ctx.JSON(http.StatusOK, packets)
}

func (api *notesApi) createStudentPacket(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if err := api.checkSelfOrCoordinator(ctx, studentID); err != nil {
		return err
	}

	var data notes.NewStudentPacket
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudentPacket")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	pkt, err := api.opts.NotesSvc.CreateStudentPacket(ctx.Request().Context(), studentID, data)
	if err != nil {
		return errors.Wrap(err, "creating student note packet")
	}
	return ctx.JSON(http.StatusCreated, pkt)
}

func (api *notesApi) queryStudentPackets(ctx echo.Context) error {
	studentID := ctx.Param("id")
	if err := api.checkSelfOrCoordinator(ctx, studentID); err != nil {
		return err
	}

	packets, err := api.opts.NotesSvc.StudentPacketsForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student note packets")
	}
	if packets == nil {
		packets = []notes.StudentNotePacket{}
	}
	return ctx.JSON(http.StatusOK, packets)
}

// editStudentPacket updates the private copy; only its owner (or a
// coordinator) may touch it, so the packet is fetched first for the check.
func (api *notesApi) editStudentPacket(ctx echo.Context) error {
	pkt, err := api.opts.NotesSvc.GetStudentPacketByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, notes.ErrStudentNotFound) {
			return errHttpNotFound
		}
		return errors.Wrap(err, "getting student note packet")
	}
	if err := api.checkSelfOrCoordinator(ctx, pkt.StudentID); err != nil {
		return err
	}

	var data EditNotesRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditNotesRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	pkt, err = api.opts.NotesSvc.UpdateStudentPacketNotes(ctx.Request().Context(), pkt.ID, data.Notes)
	if err != nil {
		return errors.Wrap(err, "editing student note packet")
	}
	return ctx.JSON(http.StatusOK, pkt)
}

func (api *notesApi) checkSelfOrCoordinator(ctx echo.Context, subjectID string) error {
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
	UpdatePacketStatusRequest struct {
		Status string `json:"status" validate:"required"`
	}

	EditNotesRequest struct {
		Notes json.RawMessage `json:"notes" validate:"required"`
	}
)

func (r *UpdatePacketStatusRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}

func (r *EditNotesRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
