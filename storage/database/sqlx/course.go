package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/inksight/backend/core"
	"github.com/inksight/backend/core/course"
	"github.com/inksight/backend/core/user"
)

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

type courseRow struct {
	ID               string      `db:"id"`
	Name             string      `db:"name"`
	SchoolID         string      `db:"school_id"`
	SDSCoordinatorID string      `db:"sds_coordinator_id"`
	Term             string      `db:"term"`
	CourseUID        null.String `db:"course_uid"`
	CourseType       string      `db:"course_type"`
	MeetingTime      string      `db:"meeting_time"`
	Campus           string      `db:"campus"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func rowFromCourse(crs course.Course) courseRow {
	return courseRow{
		ID:               crs.ID,
		Name:             crs.Name,
		SchoolID:         crs.SchoolID,
		SDSCoordinatorID: crs.SDSCoordinatorID,
		Term:             crs.Term,
		CourseUID:        null.NewString(crs.CourseUID, crs.CourseUID != ""),
		CourseType:       crs.Type,
		MeetingTime:      crs.MeetingTime,
		Campus:           crs.Campus,
		CreatedAt:        crs.CreatedAt.UTC(),
		UpdatedAt:        crs.UpdatedAt.UTC(),
	}
}

func (r courseRow) toDomain() course.Course {
	return course.Course{
		ID:               r.ID,
		Name:             r.Name,
		SchoolID:         r.SchoolID,
		SDSCoordinatorID: r.SDSCoordinatorID,
		Term:             r.Term,
		CourseUID:        r.CourseUID.String,
		Type:             r.CourseType,
		MeetingTime:      r.MeetingTime,
		Campus:           r.Campus,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func coursesFromRows(rows []courseRow) []course.Course {
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toDomain())
	}
	return courses
}

func (repo courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	row := rowFromCourse(crs)
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO course (id, name, school_id, sds_coordinator_id, term, course_uid, course_type,
			meeting_time, campus, created_at, updated_at)
		VALUES (:id, :name, :school_id, :sds_coordinator_id, :term, :course_uid, :course_type,
			:meeting_time, :campus, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo courseRepository) GetCourse(ctx context.Context, filter course.GetFilter) (course.Course, error) {
	var (
		row  courseRow
		err  error
		cond = `id = $1`
		args = []interface{}{filter.ID}
	)
	if filter.ID == "" {
		cond = `name = $1 AND school_id = $2`
		args = []interface{}{filter.Name, filter.SchoolID}
	}

	err = repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE `+cond, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	query := `SELECT * FROM course`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
		}
		if filter.SchoolID != "" {
			args = append(args, filter.SchoolID)
			conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
		}
		if filter.SDSCoordinatorID != "" {
			args = append(args, filter.SDSCoordinatorID)
			conds = append(conds, fmt.Sprintf("sds_coordinator_id = $%d", len(args)))
		}
		if filter.Term != "" {
			args = append(args, filter.Term)
			conds = append(conds, fmt.Sprintf("term = $%d", len(args)))
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY " + orderClause(ordering, "name ASC")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return coursesFromRows(rows), nil
}

func (repo courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row := rowFromCourse(crs)
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE course SET name = :name, school_id = :school_id, sds_coordinator_id = :sds_coordinator_id,
			term = :term, course_uid = :course_uid, course_type = :course_type,
			meeting_time = :meeting_time, campus = :campus, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting courses")
}

type studentCourseRow struct {
	ID        string    `db:"id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r studentCourseRow) toDomain() course.StudentCourse {
	return course.StudentCourse{ID: r.ID, StudentID: r.StudentID, CourseID: r.CourseID, CreatedAt: r.CreatedAt}
}

func (repo courseRepository) CreateStudentCourse(ctx context.Context, sc course.StudentCourse) (course.StudentCourse, error) {
	sc.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO student_course (id, student_id, course_id, created_at) VALUES ($1, $2, $3, $4)`,
		sc.ID, sc.StudentID, sc.CourseID, sc.CreatedAt.UTC(),
	)
	if err != nil {
		if violatesUnique(err, "student_course_student_id_course_id_key") {
			return course.StudentCourse{}, course.ErrAlreadyEnrolled
		}
		return course.StudentCourse{}, errors.Wrap(err, "inserting enrollment")
	}
	return sc, nil
}

func (repo courseRepository) GetStudentCourse(ctx context.Context, studentID, courseID string) (course.StudentCourse, error) {
	var row studentCourseRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM student_course WHERE student_id = $1 AND course_id = $2`, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.StudentCourse{}, course.ErrNotFound
		}
		return course.StudentCourse{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) GetStudentCourseByID(ctx context.Context, id string) (course.StudentCourse, error) {
	var row studentCourseRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM student_course WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.StudentCourse{}, course.ErrNotFound
		}
		return course.StudentCourse{}, errors.Wrap(err, "getting enrollment")
	}
	return row.toDomain(), nil
}

func (repo courseRepository) CreateProfessorCourse(ctx context.Context, pc course.ProfessorCourse) (course.ProfessorCourse, error) {
	pc.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO professor_course (id, professor_id, course_id, created_at) VALUES ($1, $2, $3, $4)`,
		pc.ID, pc.ProfessorID, pc.CourseID, pc.CreatedAt.UTC(),
	)
	if err != nil {
		if violatesUnique(err, "professor_course_professor_id_course_id_key") {
			return course.ProfessorCourse{}, course.ErrAlreadyAssigned
		}
		return course.ProfessorCourse{}, errors.Wrap(err, "inserting teaching assignment")
	}
	return pc, nil
}

func (repo courseRepository) QueryCoursesForStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.* FROM course c
		JOIN student_course sc ON sc.course_id = c.id
		WHERE sc.student_id = $1
		ORDER BY c.name ASC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student courses")
	}
	return coursesFromRows(rows), nil
}

func (repo courseRepository) QueryCoursesForProfessor(ctx context.Context, professorID string) ([]course.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.* FROM course c
		JOIN professor_course pc ON pc.course_id = c.id
		WHERE pc.professor_id = $1
		ORDER BY c.name ASC`, professorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying professor courses")
	}
	return coursesFromRows(rows), nil
}

func (repo courseRepository) QueryCoursesForSchool(ctx context.Context, schoolID string) ([]course.Course, error) {
	var rows []courseRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM course WHERE school_id = $1 ORDER BY name ASC`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "querying school courses")
	}
	return coursesFromRows(rows), nil
}

func (repo courseRepository) QueryStudentsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT u.* FROM "user" u
		JOIN student_course sc ON sc.student_id = u.id
		WHERE sc.course_id = $1
		ORDER BY u.name ASC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course students")
	}
	return usersFromRows(rows), nil
}

func (repo courseRepository) QueryProfessorsForCourse(ctx context.Context, courseID string) ([]user.User, error) {
	var rows []userRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT u.* FROM "user" u
		JOIN professor_course pc ON pc.professor_id = u.id
		WHERE pc.course_id = $1
		ORDER BY u.name ASC`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course professors")
	}
	return usersFromRows(rows), nil
}
