package session

// Notification is a short user-facing message. Destructive marks failures.
type Notification struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

func failure(title, description string) Notification {
	return Notification{Title: title, Description: description, Destructive: true}
}
