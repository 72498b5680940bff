package server

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);
`

// User is a registered account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`

	passwordHash string
}

// UserStore persists user accounts in a SQLite database.
type UserStore struct {
	db *sql.DB
}

// NewUserStore ensures the users table exists on the given database.
func NewUserStore(db *sql.DB) (*UserStore, error) {
	if _, err := db.Exec(usersSchema); err != nil {
		return nil, fmt.Errorf("create users schema: %w", err)
	}
	return &UserStore{db: db}, nil
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserStore) Create(username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		CreatedAt:    time.Now().UTC(),
		passwordHash: string(hash),
	}
	_, err = s.db.Exec(
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.passwordHash, u.CreatedAt,
	)
	if err != nil {
		var taken int
		row := s.db.QueryRow(`SELECT COUNT(1) FROM users WHERE username = ?`, username)
		if scanErr := row.Scan(&taken); scanErr == nil && taken > 0 {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the user.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	row := s.db.QueryRow(
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.passwordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}
