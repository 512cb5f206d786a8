package repository

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stanstork/admingate/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

type UserRepository interface {
	CreateUser(email, password, firstName, lastName string, role models.UserRole) (models.User, error)
	AuthenticateUser(email, password string) (models.User, error)
	GetUserByID(userID string) (models.User, error)
	ListUsers() ([]models.User, error)
	UpdateUserRole(userID string, role models.UserRole) (models.User, error)
	DeleteUser(userID string) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, password_hash, role, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.Role = models.UserRole(role)
	return user, nil
}

func (u *userRepository) CreateUser(email, password, firstName, lastName string, role models.UserRole) (models.User, error) {
	if role == "" {
		role = models.RoleUser
	}
	if !models.IsValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "hashing password")
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING ` + userColumns
	user, err := scanUser(u.db.QueryRow(query,
		uuid.NewString(),
		strings.ToLower(strings.TrimSpace(email)),
		strings.TrimSpace(firstName),
		strings.TrimSpace(lastName),
		string(hash),
		string(role),
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrUserExists
		}
		return models.User{}, errors.Wrap(err, "inserting user")
	}

	return user, nil
}

func (u *userRepository) AuthenticateUser(email, password string) (models.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND deleted_at IS NULL`
	user, err := scanUser(u.db.QueryRow(query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, errors.Wrap(err, "loading user")
	}

	if !user.IsActive {
		return models.User{}, ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return user, nil
}

func (u *userRepository) GetUserByID(userID string) (models.User, error) {
	const query = `SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`
	user, err := scanUser(u.db.QueryRow(query, userID))
	return user, notFoundOnMalformedID(err)
}

func (u *userRepository) ListUsers() ([]models.User, error) {
	const query = `SELECT ` + userColumns + `
		FROM users
		WHERE deleted_at IS NULL
		ORDER BY email`

	rows, err := u.db.Query(query)
	if err != nil {
		return nil, errors.Wrap(err, "listing users")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning user")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (u *userRepository) UpdateUserRole(userID string, role models.UserRole) (models.User, error) {
	if !models.IsValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	const query = `
		UPDATE users
		SET role = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	user, err := scanUser(u.db.QueryRow(query, userID, string(role)))
	return user, notFoundOnMalformedID(err)
}

func (u *userRepository) DeleteUser(userID string) error {
	const query = `
		UPDATE users
		SET is_active = FALSE, deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := u.db.Exec(query, userID)
	if err != nil {
		if err = notFoundOnMalformedID(err); errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return errors.Wrap(err, "deleting user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// notFoundOnMalformedID reports an id that is not a valid UUID as a missing
// row, since no user can have it.
func notFoundOnMalformedID(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation {
		return sql.ErrNoRows
	}
	return err
}
