package httpx

import (
	"net/http"
	"net/url"
)

const flashCookie = "flash"

// setFlash stores a one-shot message for the next page render.
func setFlash(w http.ResponseWriter, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(kind + ":" + msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, msg string) {
	setFlash(w, kind, msg)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
