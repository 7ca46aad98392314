package user

import (
	"context"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// compared against when the email is unknown, so both login failures cost one bcrypt round
	dummyHash     []byte
	dummyHashInit sync.Once
)

type (
	Repository interface {
		// CreateUser stores the user and its profile atomically. Returns ErrEmailExists on a duplicate email.
		CreateUser(ctx context.Context, usr User, prof Profile) (User, Profile, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		UpdatePassword(ctx context.Context, id string, hash []byte, updatedAt time.Time) error
		QueryUsersWithProfiles(ctx context.Context) ([]UserWithProfile, error)
		GetProfile(ctx context.Context, userID string) (Profile, error)
		// UpsertProfile creates or updates the CV fields of a profile. The role of an existing profile is kept.
		UpsertProfile(ctx context.Context, prof Profile) (Profile, error)
		// SetRole updates the role of a profile, creating the profile if needed.
		SetRole(ctx context.Context, userID string, role Role, updatedAt time.Time) (Profile, error)
	}

	// SessionTerminator ends every session of a user.
	SessionTerminator interface {
		EndAll(ctx context.Context, userID string) error
	}

	Service struct {
		repo     Repository
		audit    audit.Recorder
		mailer   core.EmailService
		sessions SessionTerminator
	}
)

func NewService(repo Repository, recorder audit.Recorder, mailer core.EmailService, sessions SessionTerminator) *Service {
	return &Service{repo: repo, audit: recorder, mailer: mailer, sessions: sessions}
}

func newProfile(userID string, role Role, now time.Time) Profile {
	return Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		Skills:    []string{},
		Languages: []Language{},
		Interests: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (svc *Service) create(ctx context.Context, nu NewUser) (User, Profile, error) {
	if _, err := svc.repo.GetUserByEmail(ctx, nu.Email); err == nil {
		return User{}, Profile{}, ErrEmailExists
	} else if errors.Cause(err) != ErrNotFound {
		return User{}, Profile{}, errors.Wrap(err, "checking email uniqueness")
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.NewString(),
		Email:     nu.Email,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, Profile{}, errors.Wrap(err, "hashing password")
	}

	role := nu.Role
	if role == "" {
		role = RoleStudent
	}
	return svc.repo.CreateUser(ctx, usr, newProfile(usr.ID, role, now))
}

// Register creates a student account.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Role = RoleStudent
	usr, _, err := svc.create(ctx, nu)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// CreateByAdmin creates an account with the requested role on behalf of a supervisor.
func (svc *Service) CreateByAdmin(ctx context.Context, actorID string, nu NewUser) (UserWithProfile, error) {
	usr, prof, err := svc.create(ctx, nu)
	if err != nil {
		return UserWithProfile{}, err
	}
	svc.audit.Record(actorID, audit.ActionAdminCreateUser, audit.EntityUser, usr.ID,
		audit.Details{"email": usr.Email, "role": prof.Role})
	svc.sendWelcomeEmail(usr)
	return UserWithProfile{User: usr, Role: prof.Role}, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	if svc.mailer == nil {
		return
	}
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct{ Name, Email string }{usr.Name(), usr.Email},
	})
}

// Authenticate returns ErrInvalidCredentials for both an unknown email and a wrong password.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			dummyHashInit.Do(func() {
				dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sejali-dummy-password"), bcrypt.DefaultCost)
			})
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(creds.Password))
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if len(usr.PasswordHash) == 0 || usr.CheckPassword(creds.Password) != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetProfile(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, userID)
}

// Capabilities resolves the capability set of a user. A user without a profile is a student.
func (svc *Service) Capabilities(ctx context.Context, userID string) (Capabilities, error) {
	prof, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) == ErrProfileNotFound {
			return CapabilitiesFor(RoleStudent), nil
		}
		return Capabilities{}, errors.Wrap(err, "getting profile")
	}
	return CapabilitiesFor(prof.Role), nil
}

func (svc *Service) UpdateProfile(ctx context.Context, userID string, pu ProfileUpdate) (Profile, error) {
	now := time.Now().UTC()
	prof, err := svc.repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Cause(err) != ErrProfileNotFound {
			return Profile{}, errors.Wrap(err, "getting profile")
		}
		prof = newProfile(userID, RoleStudent, now)
	}
	pu.apply(&prof)
	prof.UpdatedAt = now

	prof, err = svc.repo.UpsertProfile(ctx, prof)
	if err != nil {
		return Profile{}, errors.Wrap(err, "upserting profile")
	}
	svc.audit.Record(userID, audit.ActionProfileUpdate, audit.EntityProfile, prof.ID, pu.auditDetails())
	return prof, nil
}

func (svc *Service) QueryWithProfiles(ctx context.Context) ([]UserWithProfile, error) {
	return svc.repo.QueryUsersWithProfiles(ctx)
}

func (svc *Service) ChangeRole(ctx context.Context, actorID, userID string, role Role) (Profile, error) {
	if !role.Valid() {
		return Profile{}, core.NewFieldValidationError("role", ErrInvalidRole.Error())
	}
	if _, err := svc.repo.GetUserByID(ctx, userID); err != nil {
		return Profile{}, err
	}
	prof, err := svc.repo.SetRole(ctx, userID, role, time.Now().UTC())
	if err != nil {
		return Profile{}, errors.Wrap(err, "setting role")
	}
	svc.audit.Record(actorID, audit.ActionRoleChange, audit.EntityProfile, prof.ID,
		audit.Details{"targetUserId": userID, "newRole": role})
	return prof, nil
}

// ResetPassword sets a new password for the user and ends all of their sessions.
func (svc *Service) ResetPassword(ctx context.Context, actorID, userID, pwd string) error {
	usr, err := svc.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if err = svc.repo.UpdatePassword(ctx, usr.ID, usr.PasswordHash, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "updating password")
	}
	if svc.sessions != nil {
		if err = svc.sessions.EndAll(ctx, usr.ID); err != nil {
			return errors.Wrap(err, "ending sessions")
		}
	}
	svc.audit.Record(actorID, audit.ActionPasswordReset, audit.EntityUser, usr.ID,
		audit.Details{"targetEmail": usr.Email})
	return nil
}
