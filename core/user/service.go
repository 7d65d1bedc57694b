package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/cmabris/erasmus25/core"
)

var (
	// errors
	ErrNotFound     = errors.New("user not found")
	ErrEmailExists  = errors.New("a user with this email already exists")
	ErrRoleNotFound = errors.New("role not found")
	ErrRoleExists   = errors.New("a role with this name already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error

		GetRole(ctx context.Context, name string) (Role, error)
		QueryAllRoles(ctx context.Context) ([]Role, error)
		UpsertRole(ctx context.Context, role Role) (Role, error)
		DeleteRole(ctx context.Context, name string) error
		CountUsersWithRole(ctx context.Context, name string) (int, error)
	}

	Service struct {
		repo Repository
		mail core.EmailService
		log  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{repo: repo, mail: mailSvc, log: logger}
}

func (svc *Service) CheckUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, actor Actor, id string, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Name:      uu.Name,
		Email:     uu.Email,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Roles != nil {
		target, err := svc.GetByID(ctx, id)
		if err != nil {
			return User{}, err
		}
		if !actor.Can(ActionAssignRoles, ResUser, target) {
			return User{}, core.NewValidationError(nil, core.FieldError{Field: "roles", Error: "not enough rights to set these roles"})
		}
		usr.Roles = uu.Roles
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, User{ID: usr.ID, LastLogin: usr.LastLogin}, nil)
}

func (svc *Service) Delete(ctx context.Context, actor Actor, ids ...string) error {
	for _, id := range ids {
		if actor.User.ID == id {
			return core.NewConflictError(ResUser, "cannot delete own account")
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

// CreateSuperAdmin creates an active super-admin account with a generated
// password. The plaintext password is returned to the caller exactly once and
// is never persisted nor logged.
func (svc *Service) CreateSuperAdmin(ctx context.Context, email string) (User, string, error) {
	email = core.CleanString(email, true /* lower */)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, "", core.NewValidationError(err, core.FieldError{Field: "email", Error: "invalid email address"})
	}
	if err := svc.CheckUniqueness(email); err != nil {
		return User{}, "", err
	}

	pwd, err := GeneratePassword(MinGeneratedPasswordLen)
	if err != nil {
		return User{}, "", err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      "Super Admin",
		Email:     email,
		IsActive:  true,
		Roles:     []string{RoleSuperAdmin},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, "", err
	}
	usr, err = svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, "", err
	}
	return usr, pwd, nil
}

// ResolveActor builds usr's request-scoped Actor from the stored roles.
func (svc *Service) ResolveActor(ctx context.Context, usr User) (Actor, error) {
	roles := make([]Role, 0, len(usr.Roles))
	for _, name := range usr.Roles {
		role, err := svc.repo.GetRole(ctx, name)
		if err != nil {
			if err == ErrRoleNotFound {
				continue // fall back to defaults in NewActor
			}
			return Actor{}, err
		}
		roles = append(roles, role)
	}
	return NewActor(usr, roles...), nil
}

// Roles

func (svc *Service) QueryRoles(ctx context.Context) ([]Role, error) {
	return svc.repo.QueryAllRoles(ctx)
}

func (svc *Service) GetRole(ctx context.Context, name string) (Role, error) {
	return svc.repo.GetRole(ctx, name)
}

func (svc *Service) SaveRole(ctx context.Context, role Role) (Role, error) {
	role.Name = core.CleanString(role.Name, true /* lower */)
	now := time.Now().UTC()
	if role.CreatedAt.IsZero() {
		role.CreatedAt = now
	}
	role.UpdatedAt = now
	return svc.repo.UpsertRole(ctx, role)
}

// DeleteRole refuses to remove system roles and roles that still have users.
func (svc *Service) DeleteRole(ctx context.Context, actor Actor, name string) error {
	role, err := svc.repo.GetRole(ctx, name)
	if err != nil {
		return err
	}
	count, err := svc.repo.CountUsersWithRole(ctx, name)
	if err != nil {
		return err
	}
	if !actor.Can(ActionDelete, ResRole, RoleUsage{Role: role, AssignedUsers: count}) {
		if IsSystemRole(name) {
			return core.NewConflictError(ResRole, "system roles cannot be deleted")
		}
		if count > 0 {
			return core.NewConflictError(ResRole, fmt.Sprintf("%d users still assigned", count))
		}
		return core.NewConflictError(ResRole, "deletion not permitted")
	}
	return svc.repo.DeleteRole(ctx, name)
}

// SeedSystemRoles upserts the four system roles with their default
// permission sets. Idempotent.
func (svc *Service) SeedSystemRoles(ctx context.Context) error {
	for _, name := range SystemRoles {
		role := Role{
			Name:        name,
			Permissions: DefaultRolePermissions[name],
		}
		if _, err := svc.SaveRole(ctx, role); err != nil {
			return err
		}
	}
	return nil
}
