package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUSNExists    = errors.New("usn already registered")
	ErrUserNotFound = errors.New("user not found")
)

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases shared and avoids
	// SQLITE_BUSY between writers.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY NOT NULL,
		email TEXT UNIQUE NOT NULL CHECK(email <> ''),
		username TEXT NOT NULL CHECK(username <> ''),
		usn TEXT UNIQUE NOT NULL CHECK(usn <> ''),
		branch TEXT NOT NULL,
		section TEXT NOT NULL,
		phone TEXT NOT NULL,
		password_hash TEXT NOT NULL CHECK(password_hash <> ''),
		created_at INTEGER NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// AddUser inserts user, assigning an id and creation time when unset.
func (s *SQLiteStore) AddUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, usn, branch, section, phone, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Username, user.USN, user.Branch, user.Section,
		user.Phone, user.PasswordHash, user.CreatedAt.Unix())
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "users.usn"):
			return ErrUSNExists
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, email string) (models.User, error) {
	var (
		user    models.User
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, usn, branch, section, phone, password_hash, created_at
		FROM users
		WHERE email = ?`, email).Scan(
		&user.ID, &user.Email, &user.Username, &user.USN, &user.Branch,
		&user.Section, &user.Phone, &user.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		logging.ErrorLog("store.GetUser error: %v", err)
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(created, 0).UTC()
	return user, nil
}

func (s *SQLiteStore) Exists(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the password hash of the user with email.
func (s *SQLiteStore) UpdatePassword(ctx context.Context, email, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE email = ?`, hash, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
