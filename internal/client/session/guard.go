package session

import "github.com/pfolio/portfolio-api/internal/model"

// Decision is what a guarded view should do.
type Decision struct {
	Allow bool
	// Pending is set while the session is still being restored; show a
	// loading state and check again.
	Pending  bool
	Redirect string
	Notice   *Notification
}

// Guard gates a privileged view on an authenticated session whose token
// carries the Required role.
type Guard struct {
	Required  model.Role
	LoginPath string
	HomePath  string
}

// AdminGuard protects the admin panel.
func AdminGuard() Guard {
	return Guard{Required: model.RoleAdmin, LoginPath: "/login", HomePath: "/"}
}

// Check decides from the snapshot alone. The role comes from the verified
// token, never from a separate lookup.
func (g Guard) Check(s Snapshot) Decision {
	switch {
	case s.Loading || s.State == Uninitialized || s.State == Restoring:
		return Decision{Pending: true}
	case s.State != Authenticated || s.Identity == nil:
		return Decision{Redirect: g.LoginPath}
	case s.Identity.Role != g.Required:
		n := failure("Access Denied", "Only the site owner can access admin.")
		return Decision{Redirect: g.HomePath, Notice: &n}
	}
	return Decision{Allow: true}
}

// Enforce checks m's current session and shows the decision's notice.
func (g Guard) Enforce(m *Manager) Decision {
	d := g.Check(m.Snapshot())
	if d.Notice != nil {
		m.notify.Notify(*d.Notice)
	}
	return d
}
