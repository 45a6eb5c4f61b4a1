package notes_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core/notes"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

func setup(t *testing.T) *notes.Service {
	t.Helper()
	return notes.NewService(inmemdb.NewNotesRepository(inmemdb.New()))
}

func newPacket(courseID string) notes.NewPacket {
	return notes.NewPacket{
		Notes:            json.RawMessage(`{"blocks":[]}`),
		CourseID:         courseID,
		LectureSessionID: "session-1",
	}
}

func Test_Service_CreatePacket(t *testing.T) {
	svc := setup(t)

	pkt, err := svc.CreatePacket(context.Background(), newPacket("course-1"))
	require.NoError(t, err)
	assert.Equal(t, notes.StatusDraft, pkt.Status)
	assert.JSONEq(t, `{"blocks":[]}`, string(pkt.Notes))
}

func Test_Service_publishLifecycle(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pkt, err := svc.CreatePacket(ctx, newPacket("course-1"))
	require.NoError(t, err)

	// drafts are invisible to the published listing
	published, err := svc.PublishedForCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Empty(t, published)

	pkt, err = svc.UpdateStatus(ctx, pkt.ID, notes.StatusEdits)
	require.NoError(t, err)
	assert.Equal(t, notes.StatusEdits, pkt.Status)
	published, err = svc.PublishedForCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Empty(t, published)

	pkt, err = svc.UpdateStatus(ctx, pkt.ID, notes.StatusPublished)
	require.NoError(t, err)
	published, err = svc.PublishedForCourse(ctx, "course-1")
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, pkt.ID, published[0].ID)

	// other courses see nothing
	published, err = svc.PublishedForCourse(ctx, "course-2")
	require.NoError(t, err)
	assert.Empty(t, published)
}

func Test_Service_UpdateNotes(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pkt, err := svc.CreatePacket(ctx, newPacket("course-1"))
	require.NoError(t, err)

	updated, err := svc.UpdateNotes(ctx, pkt.ID, json.RawMessage(`{"blocks":[{"text":"hi"}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"blocks":[{"text":"hi"}]}`, string(updated.Notes))
	assert.Equal(t, notes.StatusDraft, updated.Status)

	_, err = svc.UpdateNotes(ctx, "unknown", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, notes.ErrNotFound)
}

func Test_Service_QueryPackets(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.CreatePacket(ctx, newPacket("course-1"))
	require.NoError(t, err)
	other := newPacket("course-2")
	other.LectureSessionID = "session-2"
	_, err = svc.CreatePacket(ctx, other)
	require.NoError(t, err)

	packets, err := svc.QueryPackets(ctx, &notes.QueryFilter{CourseID: "course-1"})
	require.NoError(t, err)
	assert.Len(t, packets, 1)

	packets, err = svc.QueryPackets(ctx, &notes.QueryFilter{LectureSessionID: "session-2"})
	require.NoError(t, err)
	assert.Len(t, packets, 1)

	packets, err = svc.QueryPackets(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, packets, 2)
}

func Test_Service_studentPackets(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	pkt, err := svc.CreateStudentPacket(ctx, "student-1", notes.NewStudentPacket{
		LectureSessionID: "session-1",
		Title:            "My notes",
		Notes:            json.RawMessage(`{"blocks":[]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "student-1", pkt.StudentID)
	assert.False(t, pkt.Time.IsZero())

	// private to their owner
	packets, err := svc.StudentPacketsForStudent(ctx, "student-1")
	require.NoError(t, err)
	require.Len(t, packets, 1)
	packets, err = svc.StudentPacketsForStudent(ctx, "student-2")
	require.NoError(t, err)
	assert.Empty(t, packets)

	updated, err := svc.UpdateStudentPacketNotes(ctx, pkt.ID, json.RawMessage(`{"blocks":[{"text":"mine"}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"blocks":[{"text":"mine"}]}`, string(updated.Notes))

	_, err = svc.UpdateStudentPacketNotes(ctx, "unknown", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, notes.ErrStudentNotFound)
}
