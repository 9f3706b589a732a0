package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gorilla/csrf"
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/Shivanand-hulikatti/activity-board/internal/board"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

const spotsLeftKey = "%d spots left"

var printer = newPrinter()

func newPrinter() *message.Printer {
	cat := catalog.NewBuilder(catalog.Fallback(language.English))
	_ = cat.Set(language.English, spotsLeftKey,
		plural.Selectf(1, "%d",
			plural.One, "%d spot left",
			plural.Other, "%d spots left",
		))
	return message.NewPrinter(language.English, message.Catalog(cat))
}

// SpotsLeft formats the availability line of a card.
func SpotsLeft(n int) string {
	return printer.Sprintf(spotsLeftKey, n)
}

var pages = template.Must(template.New("").Funcs(template.FuncMap{
	"spotsLeft": SpotsLeft,
}).ParseFS(templatesFS, "templates/*.html"))

// pageData is what index.html renders.
type pageData struct {
	Board              board.Snapshot
	CSRFField          template.HTML
	LoadFailureMessage string
	SelectPlaceholder  string
	EmptyParticipants  string
}

func renderIndex(w http.ResponseWriter, r *http.Request, snap board.Snapshot) error {
	data := pageData{
		Board:              snap,
		CSRFField:          csrf.TemplateField(r),
		LoadFailureMessage: board.LoadFailureMessage,
		SelectPlaceholder:  board.SelectPlaceholder,
		EmptyParticipants:  board.EmptyParticipants,
	}

	// Render into a buffer so a template error never leaves a half-written page.
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, "index.html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}

// staticHandler serves the embedded stylesheet and script.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
