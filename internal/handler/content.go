package handler

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/model"
)

// ProfileStore, ContactStore and ProjectStore are implemented by the MySQL
// repositories.
type ProfileStore interface {
	Get(ctx context.Context) (model.Profile, error)
	Save(ctx context.Context, p model.Profile) error
}

type ContactStore interface {
	Get(ctx context.Context) (model.Contact, error)
	Save(ctx context.Context, c model.Contact) error
}

type ProjectStore interface {
	List(ctx context.Context) ([]model.Project, error)
	GetByID(ctx context.Context, id uint64) (model.Project, error)
	Create(ctx context.Context, p model.Project) (model.Project, error)
	Update(ctx context.Context, p model.Project) (model.Project, error)
	Delete(ctx context.Context, id uint64) error
}

// CachePurger drops cached public responses after an admin write.
type CachePurger interface {
	Purge(ctx context.Context) (int, error)
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// validURL accepts an empty string or an absolute http(s) URL.
func validURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// cleanList trims entries and drops empty ones. It never returns nil so the
// JSON form is always an array.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
