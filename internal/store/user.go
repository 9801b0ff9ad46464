package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/climatologylab/labsite/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	var isStaff int
	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Role, &isStaff, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.IsStaff = isStaff != 0
	return &u, nil
}

const userCols = `id, email, username, password_hash, role, is_staff, created_at, updated_at`

// Create adds a staff account with a bcrypt hash of password.
func (s *UserStore) Create(email, username, password, role string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO users (email, username, password_hash, role) VALUES (?, ?, ?, ?)`,
		email, username, string(hash), role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	return s.getOne(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
}

// GetByEmail returns the account with exactly this email, or nil.
func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	return s.getOne(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
}

// GetByLogin looks an account up by username or email.
func (s *UserStore) GetByLogin(login string) (*model.User, error) {
	login = strings.TrimSpace(login)
	return s.getOne(`SELECT `+userCols+` FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1`, login, login)
}

func (s *UserStore) getOne(query string, args ...any) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Authenticate returns the staff account matching login and password, or nil.
func (s *UserStore) Authenticate(login, password string) (*model.User, error) {
	u, err := s.GetByLogin(login)
	if err != nil || u == nil {
		return nil, err
	}
	if !u.IsStaff || !CheckPassword(u, password) {
		return nil, nil
	}
	return u, nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(u *model.User, password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// SetPassword replaces the account's password.
func (s *UserStore) SetPassword(id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE users SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(hash), id,
	)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *UserStore) List() ([]model.User, error) {
	users, err := queryAll(s.db, scanUser, `SELECT `+userCols+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserStore) SetRole(id int64, role string) error {
	_, err := s.db.Exec(`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
