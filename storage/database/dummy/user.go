package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/cmabris/erasmus25/core/user"
)

type userRepository struct {
	db *userTables
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		users = append(users, *usr)
	}
	return users
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email && !isExcluded(usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.query() {
		if usr.Email == filter.Email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := repo.query()

	// users with search keyword matching any of Name or Email ?
	if filter.Search != "" {
		var filtered []user.User
		for _, usr := range users {
			if strings.Contains(strings.ToLower(usr.Name), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(usr.Email), strings.ToLower(filter.Search)) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}
	// users with any of the specified roles
	if users != nil && len(filter.Roles) > 0 {
		var filtered []user.User
		for _, usr := range users {
			for _, role := range filter.Roles {
				if usr.HasRole(role) {
					filtered = append(filtered, usr)
					break
				}
			}
		}
		users = filtered
	}
	if users != nil && filter.IsActive != nil {
		var filtered []user.User
		for _, usr := range users {
			if usr.IsActive == *filter.IsActive {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedFrom.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedFrom.UTC()
		for _, usr := range users {
			if usr.CreatedAt.Equal(timeUTC) || usr.CreatedAt.After(timeUTC) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}
	if users != nil && !filter.CreatedTo.IsZero() {
		var filtered []user.User
		timeUTC := filter.CreatedTo.UTC()
		for _, usr := range users {
			if usr.CreatedAt.Before(timeUTC) || usr.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, usr)
			}
		}
		users = filtered
	}

	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		origUsr.Name = usr.Name
	}
	if usr.Email != "" {
		origUsr.Email = usr.Email
	}
	if usr.Roles != nil {
		origUsr.Roles = usr.Roles
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if !usr.LastLogin.IsZero() {
		origUsr.LastLogin = usr.LastLogin
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	if !usr.UpdatedAt.IsZero() {
		origUsr.UpdatedAt = usr.UpdatedAt
	}

	repo.db.users[usr.ID] = origUsr
	return *origUsr, nil
}

func (repo *userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()

	for _, existing := range repo.db.users {
		if existing.Email == usr.Email {
			usr.ID = existing.ID
			repo.db.Unlock()
			return repo.UpdateUser(ctx, usr, nil)
		}
	}
	repo.db.Unlock()
	return repo.CreateUser(ctx, usr)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}

func (repo *userRepository) GetRole(ctx context.Context, name string) (user.Role, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if role, ok := repo.db.roles[name]; ok {
		return *role, nil
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) QueryAllRoles(ctx context.Context) ([]user.Role, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	roles := make([]user.Role, 0, len(repo.db.roles))
	for _, role := range repo.db.roles {
		roles = append(roles, *role)
	}
	return roles, nil
}

func (repo *userRepository) UpsertRole(ctx context.Context, role user.Role) (user.Role, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing, ok := repo.db.roles[role.Name]; ok {
		role.ID = existing.ID
		role.CreatedAt = existing.CreatedAt
	} else if role.ID == "" {
		role.ID = uuid.New().String()
	}
	repo.db.roles[role.Name] = &role
	return role, nil
}

func (repo *userRepository) DeleteRole(ctx context.Context, name string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.roles, name)
	return nil
}

func (repo *userRepository) CountUsersWithRole(ctx context.Context, name string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, usr := range repo.query() {
		if usr.HasRole(name) {
			count++
		}
	}
	return count, nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excluded := range excludedUsers {
		if excluded.ID == usr.ID {
			return true
		}
	}
	return false
}
