package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/pfolio/portfolio-api/internal/model"
)

// ProjectRepo encapsulates queries against the `projects` table.
type ProjectRepo struct{ db *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = `id, title, description, tech_stack, image_url, live_url, repo_url,
	sort_order, created_at, updated_at`

// List returns every project in display order.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects ORDER BY sort_order ASC, created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one project or ErrNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (model.Project, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, ErrNotFound
	}
	return p, err
}

// Create inserts p and returns the stored row.
func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (model.Project, error) {
	tech, err := encodeList(p.TechStack)
	if err != nil {
		return model.Project{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (title, description, tech_stack, image_url, live_url, repo_url, sort_order)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Description, tech, p.ImageURL, p.LiveURL, p.RepoURL, p.SortOrder)
	if err != nil {
		return model.Project{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Project{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Update overwrites every editable column of project p.ID.
func (r *ProjectRepo) Update(ctx context.Context, p model.Project) (model.Project, error) {
	tech, err := encodeList(p.TechStack)
	if err != nil {
		return model.Project{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ?, tech_stack = ?, image_url = ?,
		   live_url = ?, repo_url = ?, sort_order = ?
		 WHERE id = ?`,
		p.Title, p.Description, tech, p.ImageURL, p.LiveURL, p.RepoURL, p.SortOrder, p.ID)
	if err != nil {
		return model.Project{}, err
	}
	// MySQL reports 0 affected rows when nothing changed, so existence is
	// confirmed by the read below rather than by RowsAffected.
	return r.GetByID(ctx, p.ID)
}

// Delete removes project id.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(s rowScanner) (model.Project, error) {
	var (
		p    model.Project
		tech []byte
	)
	if err := s.Scan(&p.ID, &p.Title, &p.Description, &tech, &p.ImageURL, &p.LiveURL,
		&p.RepoURL, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Project{}, err
	}
	var err error
	if p.TechStack, err = decodeList(tech); err != nil {
		return model.Project{}, err
	}
	return p, nil
}
