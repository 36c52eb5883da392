package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/okeamah/portal/internal/models"
)

// UserRecord is a locally registered account
type UserRecord struct {
	User         models.User
	PasswordHash string
	CreatedAt    time.Time
}

// UserRepository provides user data access for the local identity backend
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(rec *UserRecord) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone, investment_type, email_confirmed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	u := rec.User
	_, err := r.db.Exec(query,
		u.ID,
		u.Email,
		rec.PasswordHash,
		u.Profile.FirstName,
		u.Profile.LastName,
		u.Profile.Phone,
		u.Profile.InvestmentType,
		u.EmailConfirmedAt,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(id string) (*UserRecord, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, investment_type, email_confirmed_at, created_at
		FROM users WHERE id = ?
	`
	return r.scanUser(r.db.QueryRow(query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(email string) (*UserRecord, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, investment_type, email_confirmed_at, created_at
		FROM users WHERE email = ?
	`
	return r.scanUser(r.db.QueryRow(query, email))
}

// EmailExists checks if an email is already registered
func (r *UserRepository) EmailExists(email string) (bool, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&count)
	return count > 0, err
}

func (r *UserRepository) scanUser(row *sql.Row) (*UserRecord, error) {
	var rec UserRecord
	var confirmed sql.NullTime

	err := row.Scan(
		&rec.User.ID,
		&rec.User.Email,
		&rec.PasswordHash,
		&rec.User.Profile.FirstName,
		&rec.User.Profile.LastName,
		&rec.User.Profile.Phone,
		&rec.User.Profile.InvestmentType,
		&confirmed,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if confirmed.Valid {
		t := confirmed.Time
		rec.User.EmailConfirmedAt = &t
	}

	return &rec, nil
}
