// Package inmemdb provides map-backed repositories for tests. The same
// uniqueness rules the schema enforces are applied here so services see
// identical error behavior.
package inmemdb

import (
	"sync"

	"github.com/inksight/backend/core/accommodation"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/lecture"
	"github.com/inksight/backend/core/notes"
	"github.com/inksight/backend/core/permission"
	"github.com/inksight/backend/core/school"
	"github.com/inksight/backend/core/user"
)

type DB struct {
	mutex sync.RWMutex

	schools          map[string]school.School
	users            map[string]user.User
	courses          map[string]course.Course
	studentCourses   map[string]course.StudentCourse
	professorCourses map[string]course.ProfessorCourse
	requests         map[string]accommodation.NoteTakingRequest
	sessions         map[string]lecture.LectureSession
	recordings       map[string]lecture.RecordingSession
	slides           map[string]lecture.LectureSlides
	packets          map[string]notes.NotesPacket
	studentPackets   map[string]notes.StudentNotePacket
	permissions      map[string]permission.Entry
}

func New() *DB {
	return &DB{
		schools:          make(map[string]school.School),
		users:            make(map[string]user.User),
		courses:          make(map[string]course.Course),
		studentCourses:   make(map[string]course.StudentCourse),
		professorCourses: make(map[string]course.ProfessorCourse),
		requests:         make(map[string]accommodation.NoteTakingRequest),
		sessions:         make(map[string]lecture.LectureSession),
		recordings:       make(map[string]lecture.RecordingSession),
		slides:           make(map[string]lecture.LectureSlides),
		packets:          make(map[string]notes.NotesPacket),
		studentPackets:   make(map[string]notes.StudentNotePacket),
		permissions:      make(map[string]permission.Entry),
	}
}
