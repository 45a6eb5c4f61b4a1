package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/user"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func sortCourses(courses []course.Course) []course.Course {
	sort.Slice(courses, func(i, j int) bool { return courses[i].Name < courses[j].Name })
	return courses
}

func sortUsers(users []user.User) []user.User {
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if crs, ok := repo.db.courses[filter.ID]; ok {
			return crs, nil
		}
		return course.Course{}, course.ErrNotFound
	}
	for _, crs := range repo.db.courses {
		if crs.Name == filter.Name && crs.SchoolID == filter.SchoolID {
			return crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, crs := range repo.db.courses {
		if filter != nil {
			if filter.Search != "" &&
				!strings.Contains(strings.ToLower(crs.Name), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.SchoolID != "" && crs.SchoolID != filter.SchoolID {
				continue
			}
			if filter.SDSCoordinatorID != "" && crs.SDSCoordinatorID != filter.SDSCoordinatorID {
				continue
			}
			if filter.Term != "" && crs.Term != filter.Term {
				continue
			}
		}
		courses = append(courses, crs)
	}
	return sortCourses(courses), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[crs.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[crs.ID] = crs
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.courses[id]; ok {
			delete(repo.db.courses, id)
			n++
		}
	}
	return n, nil
}

func (repo *courseRepository) CreateStudentCourse(ctx context.Context, sc course.StudentCourse) (course.StudentCourse, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.studentCourses {
		if existing.StudentID == sc.StudentID && existing.CourseID == sc.CourseID {
			return course.StudentCourse{}, course.ErrAlreadyEnrolled
		}
	}
	sc.ID = uuid.New().String()
	repo.db.studentCourses[sc.ID] = sc
	return sc, nil
}

func (repo *courseRepository) GetStudentCourse(ctx context.Context, studentID, courseID string) (course.StudentCourse, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sc := range repo.db.studentCourses {
		if sc.StudentID == studentID && sc.CourseID == courseID {
			return sc, nil
		}
	}
	return course.StudentCourse{}, course.ErrNotFound
}

func (repo *courseRepository) GetStudentCourseByID(ctx context.Context, id string) (course.StudentCourse, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sc, ok := repo.db.studentCourses[id]; ok {
		return sc, nil
	}
	return course.StudentCourse{}, course.ErrNotFound
}

func (repo *courseRepository) CreateProfessorCourse(ctx context.Context, pc course.ProfessorCourse) (course.ProfessorCourse, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.professorCourses {
		if existing.ProfessorID == pc.ProfessorID && existing.CourseID == pc.CourseID {
			return course.ProfessorCourse{}, course.ErrAlreadyAssigned
		}
	}
	pc.ID = uuid.New().String()
	repo.db.professorCourses[pc.ID] = pc
	return pc, nil
}

func (repo *courseRepository) QueryCoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, sc := range repo.db.studentCourses {
		if sc.StudentID != studentID {
			continue
		}
		if crs, ok := repo.db.courses[sc.CourseID]; ok {
			courses = append(courses, crs)
		}
	}
	return sortCourses(courses), nil
}

func (repo *courseRepository) QueryCoursesForProfessor(ctx context.Context, professorID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, pc := range repo.db.professorCourses {
		if pc.ProfessorID != professorID {
			continue
		}
		if crs, ok := repo.db.courses[pc.CourseID]; ok {
			courses = append(courses, crs)
		}
	}
	return sortCourses(courses), nil
}

func (repo *courseRepository) QueryCoursesForSchool(ctx context.Context, schoolID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var courses []course.Course
	for _, crs := range repo.db.courses {
		if crs.SchoolID == schoolID {
			courses = append(courses, crs)
		}
	}
	return sortCourses(courses), nil
}

func (repo *courseRepository) QueryStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var users []user.User
	for _, sc := range repo.db.studentCourses {
		if sc.CourseID != courseID {
			continue
		}
		if usr, ok := repo.db.users[sc.StudentID]; ok {
			users = append(users, usr)
		}
	}
	return sortUsers(users), nil
}

func (repo *courseRepository) QueryProfessorsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var users []user.User
	for _, pc := range repo.db.professorCourses {
		if pc.CourseID != courseID {
			continue
		}
		if usr, ok := repo.db.users[pc.ProfessorID]; ok {
			users = append(users, usr)
		}
	}
	return sortUsers(users), nil
}
