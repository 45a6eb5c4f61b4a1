package lecture_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/services/filestore"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

func setup(t *testing.T) (*lecture.Service, *filestore.MockStorage) {
	t.Helper()
	files := filestore.NewMockStorage()
	svc := lecture.NewService(inmemdb.NewLectureRepository(inmemdb.New()), files)
	return svc, files
}

func Test_Service_CreateSession_defaults(t *testing.T) {
	svc, _ := setup(t)

	ses, err := svc.CreateSession(context.Background(), lecture.NewSession{
		Date:     time.Now(),
		CourseID: "course-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lecture", ses.Title)
	assert.Equal(t, lecture.StatusRecording, ses.Status)
}

func Test_Service_CurrentSessionForCourse(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.CurrentSessionForCourse(ctx, "course-1")
	assert.ErrorIs(t, err, lecture.ErrNoCurrentSession)

	now := time.Now()
	old, err := svc.CreateSession(ctx, lecture.NewSession{Date: now.Add(-2 * time.Hour), CourseID: "course-1"})
	require.NoError(t, err)
	latest, err := svc.CreateSession(ctx, lecture.NewSession{Date: now, CourseID: "course-1"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, lecture.NewSession{Date: now.Add(time.Hour), CourseID: "course-2"})
	require.NoError(t, err)

	// the most recent recording session of the course wins
	cur, err := svc.CurrentSessionForCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, latest.ID, cur.ID)

	// publishing it falls back to the older one
	_, err = svc.UpdateStatus(ctx, latest.ID, lecture.StatusPublished)
	require.NoError(t, err)
	cur, err = svc.CurrentSessionForCourse(ctx, "course-1")
	require.NoError(t, err)
	assert.Equal(t, old.ID, cur.ID)

	// once nothing records, there is no current session
	_, err = svc.UpdateStatus(ctx, old.ID, lecture.StatusPublished)
	require.NoError(t, err)
	_, err = svc.CurrentSessionForCourse(ctx, "course-1")
	assert.ErrorIs(t, err, lecture.ErrNoCurrentSession)
}

func Test_Service_AddRecording(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddRecording(ctx, "unknown", lecture.NewRecording{RecordingType: "audio", FilePath: "/tmp/a.mp3"})
	assert.ErrorIs(t, err, lecture.ErrNotFound)

	ses, err := svc.CreateSession(ctx, lecture.NewSession{Date: time.Now(), CourseID: "course-1"})
	require.NoError(t, err)

	rec, err := svc.AddRecording(ctx, ses.ID, lecture.NewRecording{RecordingType: "audio", FilePath: "/tmp/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, ses.ID, rec.LectureSessionID)

	recs, err := svc.RecordingsForSession(ctx, ses.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
}

func Test_Service_UploadSlides(t *testing.T) {
	svc, files := setup(t)
	ctx := context.Background()

	sl, err := svc.UploadSlides(ctx, "course-1", "deck.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Empty(t, sl.LectureSessionID)
	assert.Equal(t, "course-1", sl.CourseID)
	assert.Contains(t, sl.FileSlides, "slides/course-1/")
	assert.True(t, strings.HasSuffix(sl.FileSlides, ".pdf"))
	require.Len(t, files.Saved, 1)

	ses, err := svc.CreateSession(ctx, lecture.NewSession{Date: time.Now(), CourseID: "course-1"})
	require.NoError(t, err)

	sl, err = svc.AssociateSlides(ctx, sl.ID, ses.ID)
	require.NoError(t, err)
	assert.Equal(t, ses.ID, sl.LectureSessionID)
}

func Test_Service_AssociateSlides_notFound(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AssociateSlides(ctx, "unknown", "whatever")
	assert.ErrorIs(t, err, lecture.ErrSlidesNotFound)

	sl, err := svc.UploadSlides(ctx, "course-1", "deck.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = svc.AssociateSlides(ctx, sl.ID, "unknown-session")
	assert.ErrorIs(t, err, lecture.ErrNotFound)
}

func Test_Service_QuerySessions(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	ses, err := svc.CreateSession(ctx, lecture.NewSession{Date: time.Now(), CourseID: "course-1"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, lecture.NewSession{Date: time.Now(), CourseID: "course-2", Status: lecture.StatusPublished})
	require.NoError(t, err)

	sessions, err := svc.QuerySessions(ctx, &lecture.QueryFilter{CourseID: "course-1"}, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, ses.ID, sessions[0].ID)

	sessions, err = svc.QuerySessions(ctx, &lecture.QueryFilter{Status: lecture.StatusPublished}, nil)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}
