package model

import "time"

// Profile is the single row backing the Hero and About sections.
type Profile struct {
	FullName  string    `json:"full_name"`
	Title     string    `json:"title"`
	Bio       string    `json:"bio"`
	About     string    `json:"about"`
	AvatarURL string    `json:"avatar_url"`
	ResumeURL string    `json:"resume_url"`
	Skills    []string  `json:"skills"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is one entry of the Projects section. SortOrder ascending, then
// newest first.
type Project struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TechStack   []string  `json:"tech_stack"`
	ImageURL    string    `json:"image_url"`
	LiveURL     string    `json:"live_url"`
	RepoURL     string    `json:"repo_url"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Contact is the single row backing the Contact section.
type Contact struct {
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Location    string    `json:"location"`
	LinkedInURL string    `json:"linkedin_url"`
	GitHubURL   string    `json:"github_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}
