package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pfolio/portfolio-api/internal/model"
)

// ContactRepo reads and writes the `contact` table.
type ContactRepo struct{ db *sql.DB }

func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

// Get returns the contact details or ErrNotFound.
func (r *ContactRepo) Get(ctx context.Context) (model.Contact, error) {
	const q = `SELECT email, phone, location, linkedin_url, github_url, updated_at
	           FROM contact WHERE id = ?`
	var c model.Contact
	err := r.db.QueryRowContext(ctx, q, singletonID).Scan(
		&c.Email, &c.Phone, &c.Location, &c.LinkedInURL, &c.GitHubURL, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Contact{}, ErrNotFound
		}
		return model.Contact{}, err
	}
	return c, nil
}

// Save creates or replaces the contact details.
func (r *ContactRepo) Save(ctx context.Context, c model.Contact) error {
	const q = `INSERT INTO contact (id, email, phone, location, linkedin_url, github_url)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE email = VALUES(email), phone = VALUES(phone),
	             location = VALUES(location), linkedin_url = VALUES(linkedin_url),
	             github_url = VALUES(github_url)`
	_, err := r.db.ExecContext(ctx, q, singletonID,
		c.Email, c.Phone, c.Location, c.LinkedInURL, c.GitHubURL)
	return err
}
