package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/audit"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) Name() string {
	return core.FullName(u.FirstName, u.LastName)
}

type Language struct {
	Name  string `json:"name" validate:"required"`
	Level string `json:"level"`
}

// Profile holds the role and the CV of a User. Every user has exactly one.
type Profile struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Role        Role       `json:"role"`
	StudentID   string     `json:"studentId"`
	TrainingID  string     `json:"trainingId"`
	Phone       string     `json:"phone"`
	Major       string     `json:"major"`
	Bio         string     `json:"bio"`
	Skills      []string   `json:"skills"`
	Languages   []Language `json:"languages"`
	LinkedIn    string     `json:"linkedIn"`
	Github      string     `json:"github"`
	Interests   []string   `json:"interests"`
	CareerGoals string     `json:"careerGoals"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// UserWithProfile is a User joined with the main fields of its Profile.
type UserWithProfile struct {
	User
	Role      Role   `json:"role"`
	StudentID string `json:"studentId"`
	Major     string `json:"major"`
	Phone     string `json:"phone"`
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      Role   `json:"role" validate:"omitempty,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	return validate.Struct(nu)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

// ProfileUpdate defines the Profile fields a user may change. nil fields are left untouched.
type ProfileUpdate struct {
	StudentID   *string    `json:"studentId"`
	TrainingID  *string    `json:"trainingId"`
	Phone       *string    `json:"phone"`
	Major       *string    `json:"major"`
	Bio         *string    `json:"bio"`
	Skills      []string   `json:"skills"`
	Languages   []Language `json:"languages" validate:"omitempty,dive"`
	LinkedIn    *string    `json:"linkedIn"`
	Github      *string    `json:"github"`
	Interests   []string   `json:"interests"`
	CareerGoals *string    `json:"careerGoals"`
}

func (pu *ProfileUpdate) Validate(validate *validator.Validate) error {
	for _, s := range []*string{pu.StudentID, pu.TrainingID, pu.Phone, pu.Major, pu.Bio, pu.LinkedIn, pu.Github, pu.CareerGoals} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if pu.Skills != nil {
		pu.Skills = core.CleanStrings(pu.Skills)
	}
	if pu.Interests != nil {
		pu.Interests = core.CleanStrings(pu.Interests)
	}
	return validate.Struct(pu)
}

func (pu ProfileUpdate) apply(prof *Profile) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&prof.StudentID, pu.StudentID)
	setStr(&prof.TrainingID, pu.TrainingID)
	setStr(&prof.Phone, pu.Phone)
	setStr(&prof.Major, pu.Major)
	setStr(&prof.Bio, pu.Bio)
	setStr(&prof.LinkedIn, pu.LinkedIn)
	setStr(&prof.Github, pu.Github)
	setStr(&prof.CareerGoals, pu.CareerGoals)
	if pu.Skills != nil {
		prof.Skills = pu.Skills
	}
	if pu.Languages != nil {
		prof.Languages = pu.Languages
	}
	if pu.Interests != nil {
		prof.Interests = pu.Interests
	}
}

// auditDetails lists the submitted fields only.
func (pu ProfileUpdate) auditDetails() audit.Details {
	d := make(audit.Details)
	add := func(key string, s *string) {
		if s != nil {
			d[key] = *s
		}
	}
	add("studentId", pu.StudentID)
	add("trainingId", pu.TrainingID)
	add("phone", pu.Phone)
	add("major", pu.Major)
	add("bio", pu.Bio)
	add("linkedIn", pu.LinkedIn)
	add("github", pu.Github)
	add("careerGoals", pu.CareerGoals)
	if pu.Skills != nil {
		d["skills"] = pu.Skills
	}
	if pu.Languages != nil {
		d["languages"] = pu.Languages
	}
	if pu.Interests != nil {
		d["interests"] = pu.Interests
	}
	return d
}

type RoleChange struct {
	Role Role `json:"role" validate:"required,role"`
}

func (rc *RoleChange) Validate(validate *validator.Validate) error {
	return validate.Struct(rc)
}

type PasswordReset struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (pr *PasswordReset) Validate(validate *validator.Validate) error {
	return validate.Struct(pr)
}
