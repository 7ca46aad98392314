package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/sejali/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func copyProfile(p user.Profile) user.Profile {
	p.Skills = copyStrings(p.Skills)
	p.Interests = copyStrings(p.Interests)
	p.Languages = append(make([]user.Language, 0, len(p.Languages)), p.Languages...)
	return p
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, prof user.Profile) (user.User, user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.Profile{}, user.ErrEmailExists
		}
	}
	prof.UserID = usr.ID
	prof = copyProfile(prof)
	repo.db.users = append(repo.db.users, &usr)
	repo.db.profiles = append(repo.db.profiles, &prof)
	return usr, copyProfile(prof), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if u := repo.db.findUser(id); u != nil {
		return *u, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, u := range repo.db.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdatePassword(_ context.Context, id string, hash []byte, updatedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u := repo.db.findUser(id)
	if u == nil {
		return user.ErrNotFound
	}
	u.PasswordHash = append([]byte(nil), hash...)
	u.UpdatedAt = updatedAt
	return nil
}

func (repo *userRepository) QueryUsersWithProfiles(_ context.Context) ([]user.UserWithProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	users := newestFirst(repo.db.users, func(u *user.User) time.Time { return u.CreatedAt })
	joined := make([]user.UserWithProfile, 0, len(users))
	for _, u := range users {
		uwp := user.UserWithProfile{User: u}
		if p := repo.db.findProfile(u.ID); p != nil {
			uwp.Role, uwp.StudentID, uwp.Major, uwp.Phone = p.Role, p.StudentID, p.Major, p.Phone
		}
		joined = append(joined, uwp)
	}
	return joined, nil
}

func (repo *userRepository) GetProfile(_ context.Context, userID string) (user.Profile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p := repo.db.findProfile(userID); p != nil {
		return copyProfile(*p), nil
	}
	return user.Profile{}, user.ErrProfileNotFound
}

func (repo *userRepository) UpsertProfile(_ context.Context, prof user.Profile) (user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	prof = copyProfile(prof)
	if p := repo.db.findProfile(prof.UserID); p != nil {
		prof.ID, prof.Role, prof.CreatedAt = p.ID, p.Role, p.CreatedAt
		*p = prof
		return copyProfile(prof), nil
	}
	if prof.Role == "" {
		prof.Role = user.RoleStudent
	}
	repo.db.profiles = append(repo.db.profiles, &prof)
	return copyProfile(prof), nil
}

func (repo *userRepository) SetRole(_ context.Context, userID string, role user.Role, updatedAt time.Time) (user.Profile, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p := repo.db.findProfile(userID); p != nil {
		p.Role = role
		p.UpdatedAt = updatedAt
		return copyProfile(*p), nil
	}
	prof := copyProfile(user.Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	})
	repo.db.profiles = append(repo.db.profiles, &prof)
	return copyProfile(prof), nil
}
