package user

import (
	"context"
	"errors"
	"time"

	"github.com/inksight/backend/core"
)

var (
	// errors
	ErrNotFound         = errors.New("user not found")
	ErrEmailExists      = errors.New("a user with this email already exists")
	ErrAccessCodeExists = errors.New("an SDS coordinator with this access code already exists")

	requiredFieldText = "this field is required"

	// access-code collisions are retried this many times before giving up
	maxAccessCodeAttempts = 10
)

type (
	// GetFilter selects a single User; exactly one field should be set.
	GetFilter struct {
		ID         string
		Email      string
		AccessCode string
	}

	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create builds the role-specific profile and persists the new User.
// A coordinator with no explicit access code gets a generated one, retried
// on collision; the uniqueness itself is guaranteed by the storage layer.
func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		SchoolID:  nu.SchoolID,
		IsActive:  true,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}

	switch nu.Role {
	case RoleStudent:
		coordID := nu.SDSCoordinatorID
		if coordID == "" {
			coord, err := svc.repo.GetUser(ctx, GetFilter{AccessCode: nu.SDSCoordinatorAccessCode})
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return User{}, core.NewValidationError(nil, core.FieldError{
						Field: "sds_coordinator_access_code", Error: "no SDS coordinator with this access code"})
				}
				return User{}, err
			}
			coordID = coord.ID
		}
		text := nu.AccommodationRequest
		if text == "" {
			text = DefaultAccommodationRequest(nu.Disability)
		}
		usr.Student = &StudentProfile{
			Year:                 nu.Year,
			Disability:           nu.Disability,
			SDSCoordinatorID:     coordID,
			AccommodationRequest: text,
		}
	case RoleProfessor:
		usr.Professor = &ProfessorProfile{Title: nu.Title}
	case RoleTeacherAssistant:
		usr.TeacherAssistant = &TeacherAssistantProfile{AssignedProfessorID: nu.AssignedProfessorID}
	case RoleSDSCoordinator:
		if nu.AccessCode != "" {
			usr.SDSCoordinator = &SDSCoordinatorProfile{Position: nu.Position, AccessCode: nu.AccessCode}
			created, err := svc.repo.CreateUser(ctx, usr)
			if errors.Is(err, ErrAccessCodeExists) {
				return User{}, core.NewValidationError(err, core.FieldError{Field: "access_code", Error: err.Error()})
			}
			return created, err
		}
		return svc.createCoordinatorWithGeneratedCode(ctx, usr, nu.Position)
	}

	created, err := svc.repo.CreateUser(ctx, usr)
	if errors.Is(err, ErrEmailExists) {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return created, err
}

func (svc *Service) createCoordinatorWithGeneratedCode(ctx context.Context, usr User, position string) (User, error) {
	var err error
	for attempt := 0; attempt < maxAccessCodeAttempts; attempt++ {
		var code string
		if code, err = generateAccessCode(); err != nil {
			return User{}, err
		}
		usr.SDSCoordinator = &SDSCoordinatorProfile{Position: position, AccessCode: code}

		var created User
		if created, err = svc.repo.CreateUser(ctx, usr); err == nil {
			return created, nil
		}
		if !errors.Is(err, ErrAccessCodeExists) {
			if errors.Is(err, ErrEmailExists) {
				return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
			}
			return User{}, err
		}
	}
	return User{}, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByAccessCode(ctx context.Context, code string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{AccessCode: core.CleanString(code)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}

	usr.Name = uu.Name
	usr.Email = uu.Email
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	switch usr.Role {
	case RoleStudent:
		if uu.Year != 0 {
			usr.Student.Year = uu.Year
		}
		if uu.Disability != "" {
			usr.Student.Disability = uu.Disability
		}
		if uu.AccommodationRequest != "" {
			usr.Student.AccommodationRequest = uu.AccommodationRequest
		}
	case RoleProfessor:
		if uu.Title != "" {
			usr.Professor.Title = uu.Title
		}
	case RoleTeacherAssistant:
		if uu.AssignedProfessorID != "" {
			usr.TeacherAssistant.AssignedProfessorID = uu.AssignedProfessorID
		}
	case RoleSDSCoordinator:
		if uu.Position != "" {
			usr.SDSCoordinator.Position = uu.Position
		}
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteUsersByID(ctx, ids...)
	return err
}
