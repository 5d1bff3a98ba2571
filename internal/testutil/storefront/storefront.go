// Package storefront serves a small imitation of the makeplayingcards.com
// pages the refresher drives, for browser-level tests.
package storefront

import (
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const sessionCookie = "mpc_session"

type Options struct {
	Username string
	Password string
	// Pages lists the checkbox ids shown on each listing page, in order.
	Pages [][]string
	// FailFirst drops the connection for the first N refresh requests of
	// a project id.
	FailFirst map[string]int
}

type Server struct {
	*httptest.Server

	opts Options

	mu        sync.Mutex
	logins    int
	refreshed []string
	failures  map[string]int
}

func New(opts Options) *Server {
	s := &Server{
		opts:     opts,
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/login.aspx", s.loginEmail)
	r.Post("/login.aspx", s.loginSubmit)
	r.Route("/design", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/dn_temporary_designes.aspx", s.listing)
		r.Get("/dn_temporary_parse.aspx", s.parse)
	})

	s.Server = httptest.NewServer(r)
	return s
}

func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *Server) Refreshed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.refreshed))
	copy(out, s.refreshed)
	return out
}

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign In</title></head>
<body>
	<form id="form1" method="post" action="/login.aspx">
		{{if .Email}}
		<input type="hidden" name="email" value="{{.Email}}" />
		<input id="txt_password" type="password" name="password" />
		{{else}}
		<input id="txt_email" type="text" name="email" />
		{{end}}
	</form>
	{{if .Error}}<div id="error">{{.Error}}</div>{{end}}
</body>
</html>`))

type loginView struct {
	Email string
	Error string
}

func (s *Server) loginEmail(w http.ResponseWriter, r *http.Request) {
	render(w, loginTmpl, loginView{})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	email := r.PostForm.Get("email")
	if _, hasPassword := r.PostForm["password"]; !hasPassword {
		render(w, loginTmpl, loginView{Email: email})
		return
	}

	if email != s.opts.Username || r.PostForm.Get("password") != s.opts.Password {
		render(w, loginTmpl, loginView{Error: "Invalid email or password"})
		return
	}

	s.mu.Lock()
	s.logins++
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: email, Path: "/"})
	http.Redirect(w, r, "/index.aspx", http.StatusFound)
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value != s.opts.Username {
			http.Redirect(w, r, "/login.aspx", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var listingTmpl = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><title>My Saved Projects</title></head>
<body>
	<table class="tb_designs">
	{{range .IDs}}
		<tr><td><div class="bmcheckbox"><input type="checkbox" id="{{.}}" /></div></td></tr>
	{{end}}
	</table>
	<div id="div_navPage">
		{{if .Next}}<a href="{{.Next}}">Next</a>{{else}}<a>Next</a>{{end}}
	</div>
</body>
</html>`))

type listingView struct {
	IDs  []string
	Next string
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	view := listingView{}
	if page <= len(s.opts.Pages) {
		view.IDs = s.opts.Pages[page-1]
	}
	if page < len(s.opts.Pages) {
		view.Next = fmt.Sprintf("/design/dn_temporary_designes.aspx?page=%d", page+1)
	}

	render(w, listingTmpl, view)
}

func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" || r.URL.Query().Get("edit") != "Y" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.failures[id] < s.opts.FailFirst[id] {
		s.failures[id]++
		s.mu.Unlock()
		dropConnection(w)
		return
	}
	s.refreshed = append(s.refreshed, id)
	s.mu.Unlock()

	fmt.Fprintf(w, `<!DOCTYPE html><html><body><div id="design">%s</div></body></html>`, template.HTMLEscapeString(id))
}

// dropConnection closes the socket without a response, which Chrome reports
// as net::ERR_EMPTY_RESPONSE.
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	_ = conn.Close()
}

func render(w http.ResponseWriter, tmpl *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
