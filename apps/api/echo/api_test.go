package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/core/notes"
	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/school"
	"github.com/inksight/backend/core/user"
	emailsvc "github.com/inksight/backend/services/email"
	"github.com/inksight/backend/services/filestore"
	inmemdb "github.com/inksight/backend/storage/database/inmem"
)

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type testApp struct {
	server Server
	opts   *Options
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := inmemdb.New()
	usrRepo := inmemdb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo)
	courseSvc := course.NewService(inmemdb.NewCourseRepository(db))

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	opts := &Options{
		Address:          ":0",
		DisableReqLogs:   true,
		Logger:           testLogger{},
		Validate:         validate,
		Translator:       translator,
		UserSvc:          usrSvc,
		SchoolSvc:        school.NewService(inmemdb.NewSchoolRepository(db)),
		CourseSvc:        courseSvc,
		AccommodationSvc: accommodation.NewService(inmemdb.NewAccommodationRepository(db), courseSvc, usrSvc, emailsvc.NewConsoleServiceMock()),
		LectureSvc:       lecture.NewService(inmemdb.NewLectureRepository(db), filestore.NewMockStorage()),
		NotesSvc:         notes.NewService(inmemdb.NewNotesRepository(db)),
		PermissionSvc:    permission.NewService(inmemdb.NewPermissionRepository(db), usrRepo),
	}
	return &testApp{server: NewServer(opts), opts: opts}
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echoHeaderContentType, "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func (app *testApp) createCoordinator(t *testing.T, email string) (user.User, string) {
	t.Helper()
	usr, err := app.opts.UserSvc.Create(context.Background(), user.NewUser{
		Name:     "Coordinator",
		Email:    email,
		Password: "s3cret!",
		Role:     user.RoleSDSCoordinator,
		Position: "Director",
	})
	require.NoError(t, err)
	return usr, app.token(t, usr)
}

func (app *testApp) createStudent(t *testing.T, email, coordID string) (user.User, string) {
	t.Helper()
	usr, err := app.opts.UserSvc.Create(context.Background(), user.NewUser{
		Name:             "Student",
		Email:            email,
		Password:         "s3cret!",
		Role:             user.RoleStudent,
		Year:             2,
		Disability:       "Dyslexia",
		SDSCoordinatorID: coordID,
	})
	require.NoError(t, err)
	return usr, app.token(t, usr)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func Test_api_home(t *testing.T) {
	app := newTestApp(t)
	rec := app.request(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to InkSight API!", rec.Body.String())
}

func Test_api_login(t *testing.T) {
	app := newTestApp(t)
	app.createCoordinator(t, "coord@test.edu")

	t.Run("ok", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Email: "coord@test.edu", Password: "s3cret!"})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("bad password", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Email: "coord@test.edu", Password: "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Email: "ghost@test.edu", Password: "s3cret!"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func Test_api_authRequired(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/v1/users", "/v1/schools", "/v1/courses", "/v1/lecture-sessions", "/v1/notes-packets", "/v1/permissions"} {
		rec := app.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path) // missing JWT
	}
}

func Test_api_signup(t *testing.T) {
	app := newTestApp(t)
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")

	rec := app.request(t, http.MethodPost, "/v1/students", "", map[string]interface{}{
		"name":               "New Student",
		"email":              "new@test.edu",
		"password":           "s3cret!",
		"year":               1,
		"disability":         "ADHD",
		"sds_coordinator_id": coord.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var usr user.User
	decode(t, rec, &usr)
	assert.Equal(t, user.RoleStudent, usr.Role)
	require.NotNil(t, usr.Student)

	// signup writes the default permissions ledger row
	ent, err := app.opts.PermissionSvc.GetForSubject(context.Background(), user.RoleStudent, usr.ID)
	require.NoError(t, err)
	assert.True(t, ent.SubmitRequest)
	assert.False(t, ent.CanApprove)

	t.Run("missing fields", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/students", "", map[string]interface{}{
			"name":     "Incomplete",
			"email":    "incomplete@test.edu",
			"password": "s3cret!",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("role collection mismatch is a 404", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/professors/"+usr.ID, coordToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = app.request(t, http.MethodGet, "/v1/students/"+usr.ID, coordToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func Test_api_roleGating(t *testing.T) {
	app := newTestApp(t)
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	_, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	// listing users is coordinator-only
	rec := app.request(t, http.MethodGet, "/v1/users", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request(t, http.MethodGet, "/v1/users", coordToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// creating schools is coordinator-only
	rec = app.request(t, http.MethodPost, "/v1/schools", studentToken, school.NewSchool{Name: "Test U"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request(t, http.MethodPost, "/v1/schools", coordToken, school.NewSchool{Name: "Test U"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func Test_api_noteTakingRequestFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	student, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	crs, err := app.opts.CourseSvc.Create(ctx, course.NewCourse{
		Name: "Calculus I", SchoolID: "school-1", SDSCoordinatorID: coord.ID,
	})
	require.NoError(t, err)

	body := map[string]string{
		"student_id":         student.ID,
		"course_id":          crs.ID,
		"sds_coordinator_id": coord.ID,
	}

	// submitting without an enrollment is a validation error
	rec := app.request(t, http.MethodPost, "/v1/notetaking-requests", studentToken, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err = app.opts.CourseSvc.Enroll(ctx, student.ID, crs.ID)
	require.NoError(t, err)

	rec = app.request(t, http.MethodPost, "/v1/notetaking-requests", studentToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var req accommodation.NoteTakingRequest
	decode(t, rec, &req)
	assert.False(t, req.Approved)

	// one request per enrollment
	rec = app.request(t, http.MethodPost, "/v1/notetaking-requests", studentToken, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// approval is coordinator-only
	rec = app.request(t, http.MethodPut, "/v1/notetaking-requests/"+req.ID+"/approve", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request(t, http.MethodPut, "/v1/notetaking-requests/"+req.ID+"/approve", coordToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &req)
	assert.True(t, req.Approved)

	rec = app.request(t, http.MethodGet, "/v1/notetaking-requests/"+student.ID+"/"+crs.ID+"/approved", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var appr ApprovalResponse
	decode(t, rec, &appr)
	assert.True(t, appr.Approved)

	rec = app.request(t, http.MethodGet, "/v1/courses/"+crs.ID+"/approved-students", coordToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []user.User
	decode(t, rec, &students)
	require.Len(t, students, 1)
	assert.Equal(t, student.ID, students[0].ID)
}

func Test_api_courseLinking(t *testing.T) {
	app := newTestApp(t)
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	student, studentToken := app.createStudent(t, "student@test.edu", coord.ID)
	other, otherToken := app.createStudent(t, "other@test.edu", coord.ID)

	body := course.NewCourse{Name: "Biology", SchoolID: "school-1", SDSCoordinatorID: coord.ID}

	// a student may not enroll someone else
	rec := app.request(t, http.MethodPost, "/v1/students/"+student.ID+"/courses/add", otherToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/students/"+student.ID+"/courses/add", studentToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp AddStudentCourseResponse
	decode(t, rec, &resp)
	assert.Equal(t, "Biology", resp.Course.Name)
	assert.Equal(t, student.ID, resp.Enrollment.StudentID)

	// double enrollment conflicts
	rec = app.request(t, http.MethodPost, "/v1/students/"+student.ID+"/courses/add", studentToken, body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// the same course name links the other student to the same course row
	rec = app.request(t, http.MethodPost, "/v1/students/"+other.ID+"/courses/add", coordToken, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp2 AddStudentCourseResponse
	decode(t, rec, &resp2)
	assert.Equal(t, resp.Course.ID, resp2.Course.ID)

	rec = app.request(t, http.MethodGet, "/v1/students/"+student.ID+"/courses", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var courses []course.Course
	decode(t, rec, &courses)
	require.Len(t, courses, 1)

	rec = app.request(t, http.MethodGet, "/v1/courses/"+resp.Course.ID+"/students", coordToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []user.User
	decode(t, rec, &students)
	assert.Len(t, students, 2)
}

func Test_api_notesPackets(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	_, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	ses, err := app.opts.LectureSvc.CreateSession(ctx, lecture.NewSession{
		Date: nowUTC(), CourseID: "course-1",
	})
	require.NoError(t, err)

	body := map[string]interface{}{
		"notes":              map[string]interface{}{"blocks": []string{}},
		"course_id":          "course-1",
		"lecture_session_id": ses.ID,
	}

	// students cannot create shared packets
	rec := app.request(t, http.MethodPost, "/v1/notes-packets", studentToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/notes-packets", coordToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pkt notes.NotesPacket
	decode(t, rec, &pkt)
	assert.Equal(t, notes.StatusDraft, pkt.Status)

	// drafts are hidden from the course's published listing
	rec = app.request(t, http.MethodGet, "/v1/courses/course-1/notes-packets", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var published []notes.NotesPacket
	decode(t, rec, &published)
	assert.Empty(t, published)

	rec = app.request(t, http.MethodPost, "/v1/notes-packets/"+pkt.ID+"/update", coordToken, UpdatePacketStatusRequest{Status: notes.StatusPublished})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request(t, http.MethodGet, "/v1/courses/course-1/notes-packets", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &published)
	require.Len(t, published, 1)
	assert.Equal(t, pkt.ID, published[0].ID)
}

func Test_api_studentNotePackets(t *testing.T) {
	app := newTestApp(t)
	coord, _ := app.createCoordinator(t, "coord@test.edu")
	student, studentToken := app.createStudent(t, "student@test.edu", coord.ID)
	_, otherToken := app.createStudent(t, "other@test.edu", coord.ID)

	body := map[string]interface{}{
		"lecture_session_id": "session-1",
		"title":              "My notes",
		"notes":              map[string]interface{}{"blocks": []string{}},
	}

	rec := app.request(t, http.MethodPost, "/v1/students/"+student.ID+"/note-packets", studentToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var pkt notes.StudentNotePacket
	decode(t, rec, &pkt)
	assert.Equal(t, student.ID, pkt.StudentID)

	// private: another student can neither list nor edit
	rec = app.request(t, http.MethodGet, "/v1/students/"+student.ID+"/note-packets", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request(t, http.MethodPost, "/v1/note-packets/"+pkt.ID+"/edit", otherToken, map[string]interface{}{"notes": map[string]string{}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/note-packets/"+pkt.ID+"/edit", studentToken, map[string]interface{}{"notes": map[string]string{"text": "mine"}})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &pkt)
	assert.JSONEq(t, `{"text":"mine"}`, string(pkt.Notes))
}

func Test_api_permissions(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	student, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	ent, err := app.opts.PermissionSvc.AssignDefault(ctx, student)
	require.NoError(t, err)

	// a student reads their own entry but not the full ledger
	rec := app.request(t, http.MethodGet, "/v1/permissions/"+string(user.RoleStudent)+"/"+student.ID, studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got permission.Entry
	decode(t, rec, &got)
	assert.Equal(t, ent.ID, got.ID)
	assert.True(t, got.SubmitRequest)

	rec = app.request(t, http.MethodGet, "/v1/permissions", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request(t, http.MethodGet, "/v1/permissions/"+string(user.RoleSDSCoordinator)+"/"+coord.ID, studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// coordinators update flags
	flags := ent.Flags
	flags.EditNotes = true
	rec = app.request(t, http.MethodPut, "/v1/permissions/"+ent.ID, coordToken, flags)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &got)
	assert.True(t, got.EditNotes)

	// unknown subject is a 404
	rec = app.request(t, http.MethodGet, "/v1/permissions/"+string(user.RoleProfessor)+"/"+student.ID, coordToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_api_lectureSessions(t *testing.T) {
	app := newTestApp(t)
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	_, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	rec := app.request(t, http.MethodGet, "/v1/courses/course-1/current-lecture-session", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := map[string]interface{}{"date": nowUTC(), "course_id": "course-1"}
	rec = app.request(t, http.MethodPost, "/v1/lecture-sessions", studentToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/lecture-sessions", coordToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ses lecture.LectureSession
	decode(t, rec, &ses)
	assert.Equal(t, lecture.StatusRecording, ses.Status)

	rec = app.request(t, http.MethodGet, "/v1/courses/course-1/current-lecture-session", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cur lecture.LectureSession
	decode(t, rec, &cur)
	assert.Equal(t, ses.ID, cur.ID)

	rec = app.request(t, http.MethodPut, "/v1/lecture-sessions/"+ses.ID+"/update", coordToken, UpdateSessionStatusRequest{Status: lecture.StatusPublished})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.request(t, http.MethodGet, "/v1/courses/course-1/current-lecture-session", studentToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request(t, http.MethodPost, "/v1/lecture-sessions/"+ses.ID+"/recordings", coordToken,
		lecture.NewRecording{RecordingType: "audio", FilePath: "/recordings/a.mp3"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = app.request(t, http.MethodGet, "/v1/lecture-sessions/"+ses.ID+"/recordings", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var recs []lecture.RecordingSession
	decode(t, rec, &recs)
	assert.Len(t, recs, 1)
}

func Test_api_uploadSlides(t *testing.T) {
	app := newTestApp(t)
	coord, coordToken := app.createCoordinator(t, "coord@test.edu")
	_, studentToken := app.createStudent(t, "student@test.edu", coord.ID)

	upload := func(t *testing.T, token string, withFile bool) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if withFile {
			fw, err := w.CreateFormFile("file", "deck.pdf")
			require.NoError(t, err)
			_, err = fw.Write([]byte("%PDF-1.4"))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/courses/course-1/upload-slides", &buf)
		req.Header.Set(echoHeaderContentType, w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		app.server.ServeHTTP(rec, req)
		return rec
	}

	rec := upload(t, studentToken, true)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = upload(t, coordToken, false)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, coordToken, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sl lecture.LectureSlides
	decode(t, rec, &sl)
	assert.Equal(t, "course-1", sl.CourseID)
	assert.Contains(t, sl.FileSlides, "slides/course-1/")

	ses, err := app.opts.LectureSvc.CreateSession(context.Background(), lecture.NewSession{Date: nowUTC(), CourseID: "course-1"})
	require.NoError(t, err)

	rec = app.request(t, http.MethodPost, "/v1/lecture-slides/"+sl.ID+"/associate", coordToken, AssociateSlidesRequest{LectureSessionID: ses.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sl)
	assert.Equal(t, ses.ID, sl.LectureSessionID)

	rec = app.request(t, http.MethodPost, "/v1/lecture-slides/unknown/associate", coordToken, AssociateSlidesRequest{LectureSessionID: ses.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func nowUTC() time.Time { return time.Now().UTC() }
