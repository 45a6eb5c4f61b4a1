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
	"github.com/inksight/backend/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// userRow is the flat single-table representation; the role column
// discriminates which nullable profile columns are meaningful.
type userRow struct {
	ID           string      `db:"id"`
	Email        string      `db:"email"`
	Name         string      `db:"name"`
	SchoolID     null.String `db:"school_id"`
	IsActive     bool        `db:"is_active"`
	IsStaff      bool        `db:"is_staff"`
	IsSuperuser  bool        `db:"is_superuser"`
	PasswordHash null.Bytes  `db:"password_hash"`
	Role         string      `db:"role"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`

	Year                 null.Int    `db:"year"`
	Disability           null.String `db:"disability"`
	SDSCoordinatorID     null.String `db:"sds_coordinator_id"`
	AccommodationRequest null.String `db:"accommodation_request"`

	Title null.String `db:"title"`

	AssignedProfessorID null.String `db:"assigned_professor_id"`

	Position   null.String `db:"position"`
	AccessCode null.String `db:"access_code"`
}

func rowFromUser(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		Name:         usr.Name,
		SchoolID:     null.NewString(usr.SchoolID, usr.SchoolID != ""),
		IsActive:     usr.IsActive,
		IsStaff:      usr.IsStaff,
		IsSuperuser:  usr.IsSuperuser,
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		Role:         string(usr.Role),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
	if p := usr.Student; p != nil {
		row.Year = null.IntFrom(p.Year)
		row.Disability = null.StringFrom(p.Disability)
		row.SDSCoordinatorID = null.NewString(p.SDSCoordinatorID, p.SDSCoordinatorID != "")
		row.AccommodationRequest = null.StringFrom(p.AccommodationRequest)
	}
	if p := usr.Professor; p != nil {
		row.Title = null.StringFrom(p.Title)
	}
	if p := usr.TeacherAssistant; p != nil {
		row.AssignedProfessorID = null.NewString(p.AssignedProfessorID, p.AssignedProfessorID != "")
	}
	if p := usr.SDSCoordinator; p != nil {
		row.Position = null.StringFrom(p.Position)
		row.AccessCode = null.StringFrom(p.AccessCode)
	}
	return row
}

func (r userRow) toDomain() user.User {
	usr := user.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		SchoolID:     r.SchoolID.String,
		IsActive:     r.IsActive,
		IsStaff:      r.IsStaff,
		IsSuperuser:  r.IsSuperuser,
		PasswordHash: r.PasswordHash.Bytes,
		Role:         user.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
	switch usr.Role {
	case user.RoleStudent:
		usr.Student = &user.StudentProfile{
			Year:                 r.Year.Int,
			Disability:           r.Disability.String,
			SDSCoordinatorID:     r.SDSCoordinatorID.String,
			AccommodationRequest: r.AccommodationRequest.String,
		}
	case user.RoleProfessor:
		usr.Professor = &user.ProfessorProfile{Title: r.Title.String}
	case user.RoleTeacherAssistant:
		usr.TeacherAssistant = &user.TeacherAssistantProfile{AssignedProfessorID: r.AssignedProfessorID.String}
	case user.RoleSDSCoordinator:
		usr.SDSCoordinator = &user.SDSCoordinatorProfile{Position: r.Position.String, AccessCode: r.AccessCode.String}
	}
	return usr
}

func usersFromRows(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users
}

const userColumns = `id, email, name, school_id, is_active, is_staff, is_superuser, password_hash, role,
	created_at, updated_at, last_login, year, disability, sds_coordinator_id, accommodation_request,
	title, assigned_professor_id, position, access_code`

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	ids := make([]string, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		ids = append(ids, usr.ID)
	}

	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1 AND id <> ALL($2))`,
		email, pq.Array(ids),
	)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := rowFromUser(usr)
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO "user" (`+userColumns+`) VALUES (
			:id, :email, :name, :school_id, :is_active, :is_staff, :is_superuser, :password_hash, :role,
			:created_at, :updated_at, :last_login, :year, :disability, :sds_coordinator_id, :accommodation_request,
			:title, :assigned_professor_id, :position, :access_code)`,
		row,
	)
	if err != nil {
		if violatesUnique(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		if violatesUnique(err, "user_access_code_key") {
			return user.User{}, user.ErrAccessCodeExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		cond string
		arg  interface{}
	)
	switch {
	case filter.ID != "":
		cond, arg = "id = $1", filter.ID
	case filter.Email != "":
		cond, arg = "email = $1", filter.Email
	case filter.AccessCode != "":
		cond, arg = "access_code = $1", filter.AccessCode
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM "user" WHERE `+cond, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.toDomain(), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM "user"`
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
		}
		if filter.Role != "" {
			args = append(args, string(filter.Role))
			conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
		}
		if filter.SchoolID != "" {
			args = append(args, filter.SchoolID)
			conds = append(conds, fmt.Sprintf("school_id = $%d", len(args)))
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
		}
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY " + orderClause(ordering, "created_at DESC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return usersFromRows(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := rowFromUser(usr)
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE "user" SET
			email = :email, name = :name, school_id = :school_id, is_active = :is_active,
			is_staff = :is_staff, is_superuser = :is_superuser, password_hash = :password_hash,
			updated_at = :updated_at, last_login = :last_login,
			year = :year, disability = :disability, sds_coordinator_id = :sds_coordinator_id,
			accommodation_request = :accommodation_request, title = :title,
			assigned_professor_id = :assigned_professor_id, position = :position, access_code = :access_code
		WHERE id = :id`,
		row,
	)
	if err != nil {
		if violatesUnique(err, "user_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM "user" WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "deleting users")
}
