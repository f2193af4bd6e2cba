package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/pfolio/portfolio-api/internal/model"
)

// The site has exactly one profile and one contact row; both live at id 1.
const singletonID = 1

// ProfileRepo reads and writes the `profile` table.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

// Get returns the profile or ErrNotFound when it has never been saved.
func (r *ProfileRepo) Get(ctx context.Context) (model.Profile, error) {
	const q = `SELECT full_name, title, bio, about, avatar_url, resume_url, skills, updated_at
	           FROM profile WHERE id = ?`
	var (
		p      model.Profile
		skills []byte
	)
	err := r.db.QueryRowContext(ctx, q, singletonID).Scan(
		&p.FullName, &p.Title, &p.Bio, &p.About, &p.AvatarURL, &p.ResumeURL, &skills, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, err
	}
	if p.Skills, err = decodeList(skills); err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

// Save creates or replaces the profile.
func (r *ProfileRepo) Save(ctx context.Context, p model.Profile) error {
	skills, err := encodeList(p.Skills)
	if err != nil {
		return err
	}
	const q = `INSERT INTO profile (id, full_name, title, bio, about, avatar_url, resume_url, skills)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE full_name = VALUES(full_name), title = VALUES(title),
	             bio = VALUES(bio), about = VALUES(about), avatar_url = VALUES(avatar_url),
	             resume_url = VALUES(resume_url), skills = VALUES(skills)`
	_, err = r.db.ExecContext(ctx, q, singletonID,
		p.FullName, p.Title, p.Bio, p.About, p.AvatarURL, p.ResumeURL, skills)
	return err
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
