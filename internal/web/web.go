// Package web embeds the few server-rendered pages: the shell shown at the
// root and the email confirmation callback.
package web

import (
	"embed"
	"html/template"
	"time"
)

const (
	AuthPage     = "auth.html"
	AppPage      = "app.html"
	CallbackPage = "callback.html"
)

// CallbackRedirectDelay is how long the callback page waits before going home.
const CallbackRedirectDelay = 3 * time.Second

//go:embed templates/*.html
var files embed.FS

func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"seconds": func(d time.Duration) int { return int(d.Seconds()) },
	}).ParseFS(files, "templates/*.html"))
}

type CallbackData struct {
	Success bool
	Message string
	Delay   time.Duration
}

type AppData struct {
	Email          string
	PublishableKey string
}
