package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pfolio/portfolio-api/internal/logging"
	"github.com/pfolio/portfolio-api/internal/model"
	"github.com/pfolio/portfolio-api/internal/repository"
)

// AdminHandler edits the portfolio content. Every route sits behind
// JWTAuth and RequireRole(admin).
type AdminHandler struct {
	Profiles ProfileStore
	Contacts ContactStore
	Projects ProjectStore
	Cache    CachePurger // optional
	Log      logging.Logger
}

type profileReq struct {
	FullName  string   `json:"full_name"`
	Title     string   `json:"title"`
	Bio       string   `json:"bio"`
	About     string   `json:"about"`
	AvatarURL string   `json:"avatar_url"`
	ResumeURL string   `json:"resume_url"`
	Skills    []string `json:"skills"`
}

type contactReq struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Location    string `json:"location"`
	LinkedInURL string `json:"linkedin_url"`
	GitHubURL   string `json:"github_url"`
}

// projectReq uses pointers so PATCH can tell "absent" from "empty".
type projectReq struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	TechStack   *[]string `json:"tech_stack"`
	ImageURL    *string   `json:"image_url"`
	LiveURL     *string   `json:"live_url"`
	RepoURL     *string   `json:"repo_url"`
	SortOrder   *int      `json:"sort_order"`
}

// apply copies the present fields onto p.
func (r projectReq) apply(p *model.Project) {
	if r.Title != nil {
		p.Title = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		p.Description = strings.TrimSpace(*r.Description)
	}
	if r.TechStack != nil {
		p.TechStack = cleanList(*r.TechStack)
	}
	if r.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*r.ImageURL)
	}
	if r.LiveURL != nil {
		p.LiveURL = strings.TrimSpace(*r.LiveURL)
	}
	if r.RepoURL != nil {
		p.RepoURL = strings.TrimSpace(*r.RepoURL)
	}
	if r.SortOrder != nil {
		p.SortOrder = *r.SortOrder
	}
}

func validateProject(p model.Project) string {
	if p.Title == "" {
		return "title is required"
	}
	if !validURL(p.ImageURL) || !validURL(p.LiveURL) || !validURL(p.RepoURL) {
		return "urls must be absolute http(s) links"
	}
	return ""
}

// PutProfile: PUT /v1/admin/profile
func (h *AdminHandler) PutProfile(c echo.Context) error {
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := model.Profile{
		FullName:  strings.TrimSpace(req.FullName),
		Title:     strings.TrimSpace(req.Title),
		Bio:       strings.TrimSpace(req.Bio),
		About:     strings.TrimSpace(req.About),
		AvatarURL: strings.TrimSpace(req.AvatarURL),
		ResumeURL: strings.TrimSpace(req.ResumeURL),
		Skills:    cleanList(req.Skills),
	}
	if p.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name is required"})
	}
	if !validURL(p.AvatarURL) || !validURL(p.ResumeURL) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "urls must be absolute http(s) links"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.Save(ctx, p); err != nil {
		h.Log.Error(ctx, "save profile", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save profile"})
	}
	saved, err := h.Profiles.Get(ctx)
	if err != nil {
		h.Log.Error(ctx, "reload profile", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save profile"})
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, saved)
}

// PutContact: PUT /v1/admin/contact
func (h *AdminHandler) PutContact(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ct := model.Contact{
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Location:    strings.TrimSpace(req.Location),
		LinkedInURL: strings.TrimSpace(req.LinkedInURL),
		GitHubURL:   strings.TrimSpace(req.GitHubURL),
	}
	if ct.Email != "" {
		if _, err := mail.ParseAddress(ct.Email); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
		}
	}
	if !validURL(ct.LinkedInURL) || !validURL(ct.GitHubURL) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "urls must be absolute http(s) links"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Contacts.Save(ctx, ct); err != nil {
		h.Log.Error(ctx, "save contact", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save contact"})
	}
	saved, err := h.Contacts.Get(ctx)
	if err != nil {
		h.Log.Error(ctx, "reload contact", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save contact"})
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, saved)
}

// CreateProject: POST /v1/admin/projects
func (h *AdminHandler) CreateProject(c echo.Context) error {
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := model.Project{TechStack: []string{}}
	req.apply(&p)
	if msg := validateProject(p); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Projects.Create(ctx, p)
	if err != nil {
		h.Log.Error(ctx, "create project", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create project"})
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, created)
}

// UpdateProject: PUT|PATCH /v1/admin/projects/:id. PUT replaces every
// editable field, PATCH only the ones present in the body.
func (h *AdminHandler) UpdateProject(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	current, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}
	if err != nil {
		h.Log.Error(ctx, "get project", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	next := current
	if c.Request().Method == http.MethodPut {
		next = model.Project{ID: id, TechStack: []string{}, CreatedAt: current.CreatedAt}
	}
	req.apply(&next)
	if msg := validateProject(next); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	updated, err := h.Projects.Update(ctx, next)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}
	if err != nil {
		h.Log.Error(ctx, "update project", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update project"})
	}
	h.purge(ctx)
	return c.JSON(http.StatusOK, updated)
}

// DeleteProject: DELETE /v1/admin/projects/:id
func (h *AdminHandler) DeleteProject(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Projects.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
	}
	if err != nil {
		h.Log.Error(ctx, "delete project", "id", id, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete project"})
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) purge(ctx context.Context) {
	if h.Cache == nil {
		return
	}
	if _, err := h.Cache.Purge(ctx); err != nil {
		h.Log.Warn(ctx, "cache purge failed", "err", err)
	}
}
