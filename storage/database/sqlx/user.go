package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/user"
)

type (
	userRow struct {
		ID           string     `db:"id"`
		Email        string     `db:"email"`
		FirstName    string     `db:"first_name"`
		LastName     string     `db:"last_name"`
		PasswordHash null.Bytes `db:"password_hash"`
		CreatedAt    time.Time  `db:"created_at"`
		UpdatedAt    time.Time  `db:"updated_at"`
	}

	profileRow struct {
		ID          string         `db:"id"`
		UserID      string         `db:"user_id"`
		Role        string         `db:"role"`
		StudentID   null.String    `db:"student_id"`
		TrainingID  null.String    `db:"training_id"`
		Phone       null.String    `db:"phone"`
		Major       null.String    `db:"major"`
		Bio         null.String    `db:"bio"`
		Skills      pq.StringArray `db:"skills"`
		Languages   null.JSON      `db:"languages"`
		LinkedIn    null.String    `db:"linked_in"`
		Github      null.String    `db:"github"`
		Interests   pq.StringArray `db:"interests"`
		CareerGoals null.String    `db:"career_goals"`
		CreatedAt   time.Time      `db:"created_at"`
		UpdatedAt   time.Time      `db:"updated_at"`
	}

	userWithProfileRow struct {
		userRow
		Role      null.String `db:"role"`
		StudentID null.String `db:"student_id"`
		Major     null.String `db:"major"`
		Phone     null.String `db:"phone"`
	}
)

const (
	userColumns    = `id, email, first_name, last_name, password_hash, created_at, updated_at`
	profileColumns = `id, user_id, role, student_id, training_id, phone, major, bio, skills, languages,
		linked_in, github, interests, career_goals, created_at, updated_at`
)

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func fromProfile(p user.Profile) (profileRow, error) {
	langs := p.Languages
	if langs == nil {
		langs = []user.Language{}
	}
	languages, err := jsonValue(langs)
	if err != nil {
		return profileRow{}, err
	}
	return profileRow{
		ID:          p.ID,
		UserID:      p.UserID,
		Role:        string(p.Role),
		StudentID:   nullString(p.StudentID),
		TrainingID:  nullString(p.TrainingID),
		Phone:       nullString(p.Phone),
		Major:       nullString(p.Major),
		Bio:         nullString(p.Bio),
		Skills:      pq.StringArray(nonNil(p.Skills)),
		Languages:   languages,
		LinkedIn:    nullString(p.LinkedIn),
		Github:      nullString(p.Github),
		Interests:   pq.StringArray(nonNil(p.Interests)),
		CareerGoals: nullString(p.CareerGoals),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (r profileRow) toProfile() (user.Profile, error) {
	langs := make([]user.Language, 0)
	if r.Languages.Valid {
		if err := r.Languages.Unmarshal(&langs); err != nil {
			return user.Profile{}, errors.Wrap(err, "decoding languages")
		}
	}
	return user.Profile{
		ID:          r.ID,
		UserID:      r.UserID,
		Role:        user.Role(r.Role),
		StudentID:   r.StudentID.String,
		TrainingID:  r.TrainingID.String,
		Phone:       r.Phone.String,
		Major:       r.Major.String,
		Bio:         r.Bio.String,
		Skills:      nonNil(r.Skills),
		Languages:   langs,
		LinkedIn:    r.LinkedIn.String,
		Github:      r.Github.String,
		Interests:   nonNil(r.Interests),
		CareerGoals: r.CareerGoals.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func insertProfile(ctx context.Context, exec core.DBExecutor, prof user.Profile) (user.Profile, error) {
	row, err := fromProfile(prof)
	if err != nil {
		return user.Profile{}, err
	}
	var saved profileRow
	q := `INSERT INTO student_profiles (` + profileColumns + `)
		VALUES (:id, :user_id, :role, :student_id, :training_id, :phone, :major, :bio, :skills, :languages,
			:linked_in, :github, :interests, :career_goals, :created_at, :updated_at)
		RETURNING ` + profileColumns
	query, args, err := sqlx.Named(q, row)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "binding profile")
	}
	if err = exec.GetContext(ctx, &saved, exec.Rebind(query), args...); err != nil {
		return user.Profile{}, errors.Wrap(err, "inserting profile")
	}
	return saved.toProfile()
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, prof user.Profile) (user.User, user.Profile, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			usr.ID, usr.Email, usr.FirstName, usr.LastName, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailExists
			}
			return errors.Wrap(err, "inserting user")
		}
		prof.UserID = usr.ID
		prof, err = insertProfile(ctx, tx, prof)
		return err
	})
	if err != nil {
		return user.User{}, user.Profile{}, err
	}
	return usr, prof, nil
}

func (repo *userRepository) getUser(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo *userRepository) UpdatePassword(ctx context.Context, id string, hash []byte, updatedAt time.Time) error {
	res, err := repo.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, hash, updatedAt)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) QueryUsersWithProfiles(ctx context.Context) ([]user.UserWithProfile, error) {
	var rows []userWithProfileRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT u.id, u.email, u.first_name, u.last_name, u.password_hash, u.created_at, u.updated_at,
			p.role, p.student_id, p.major, p.phone
		FROM users u
		LEFT JOIN student_profiles p ON p.user_id = u.id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.UserWithProfile, 0, len(rows))
	for _, r := range rows {
		users = append(users, user.UserWithProfile{
			User:      r.userRow.toUser(),
			Role:      user.Role(r.Role.String),
			StudentID: r.StudentID.String,
			Major:     r.Major.String,
			Phone:     r.Phone.String,
		})
	}
	return users, nil
}

func (repo *userRepository) GetProfile(ctx context.Context, userID string) (user.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM student_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return user.Profile{}, trapNoRowsErr(err, user.ErrProfileNotFound, "getting profile")
	}
	return row.toProfile()
}

func (repo *userRepository) UpsertProfile(ctx context.Context, prof user.Profile) (user.Profile, error) {
	if prof.Role == "" {
		prof.Role = user.RoleStudent
	}
	row, err := fromProfile(prof)
	if err != nil {
		return user.Profile{}, err
	}
	q := `INSERT INTO student_profiles (` + profileColumns + `)
		VALUES (:id, :user_id, :role, :student_id, :training_id, :phone, :major, :bio, :skills, :languages,
			:linked_in, :github, :interests, :career_goals, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			student_id = EXCLUDED.student_id, training_id = EXCLUDED.training_id, phone = EXCLUDED.phone,
			major = EXCLUDED.major, bio = EXCLUDED.bio, skills = EXCLUDED.skills, languages = EXCLUDED.languages,
			linked_in = EXCLUDED.linked_in, github = EXCLUDED.github, interests = EXCLUDED.interests,
			career_goals = EXCLUDED.career_goals, updated_at = EXCLUDED.updated_at
		RETURNING ` + profileColumns
	query, args, err := sqlx.Named(q, row)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "binding profile")
	}
	var saved profileRow
	if err = repo.db.GetContext(ctx, &saved, repo.db.Rebind(query), args...); err != nil {
		return user.Profile{}, errors.Wrap(err, "upserting profile")
	}
	return saved.toProfile()
}

func (repo *userRepository) SetRole(ctx context.Context, userID string, role user.Role, updatedAt time.Time) (user.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO student_profiles (id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns, uuid.NewString(), userID, string(role), updatedAt)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "setting role")
	}
	return row.toProfile()
}
