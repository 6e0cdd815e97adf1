package view

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/queendahyun/internal/blog"
	"github.com/hitoshi/queendahyun/internal/form"
	"github.com/hitoshi/queendahyun/internal/model"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func render(t *testing.T, r *Renderer, page string, data any) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.Render(w, http.StatusOK, page, data)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	return w.Body.String()
}

func assertContains(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body should contain %q", want)
		}
	}
}

func TestRenderer_StaticPages(t *testing.T) {
	r := newTestRenderer(t)
	base := NewBase(false, "csrf-abc")

	assertContains(t, render(t, r, PageLanding, NewLandingPage(base)),
		"Autonomous AI Agent: QueenDahyun", `href="/signup"`, "What People Say About Us")
	assertContains(t, render(t, r, PageAbout, base), "Company History", "md.sofiullah@queendahyun.site")
	assertContains(t, render(t, r, PageProduct, NewProductPage(base)),
		"Performance vs Cost Analysis", "30B Model", "Development Roadmap")
}

func TestRenderer_LayoutNavigationFollowsSessionState(t *testing.T) {
	r := newTestRenderer(t)

	anon := render(t, r, PageAbout, NewBase(false, "csrf-abc"))
	assertContains(t, anon, `href="/login"`)
	if strings.Contains(anon, `action="/logout"`) {
		t.Error("anonymous layout should not show logout")
	}

	authed := render(t, r, PageAbout, NewBase(true, "csrf-abc"))
	assertContains(t, authed, `action="/logout"`, `value="csrf-abc"`)
	if strings.Contains(authed, `href="/login"`) {
		t.Error("authenticated layout should not show login link")
	}
}

func TestRenderer_AuthPage_Signup(t *testing.T) {
	r := newTestRenderer(t)
	f := form.New(form.ModeSignup)
	f.Country = "Japan"
	f.FieldErrors = map[string]string{"email": "Valid email is required"}
	f.FormError = "Signup failed"

	body := render(t, r, PageAuth, AuthPage{
		Base:      NewBase(false, "csrf-abc"),
		Form:      f,
		Genders:   []string{"Male", "Female", "Other"},
		Countries: []string{"Germany", "Japan"},
		Google: GoogleButton{
			ClientID:  "client-123",
			LoginURI:  "https://qd.example.com/auth/google/callback",
			ScriptURL: "https://accounts.google.com/gsi/client",
		},
	})

	assertContains(t, body,
		`action="/signup"`,
		`name="first_name"`,
		`name="date_of_birth"`,
		`<option value="Japan" selected>Japan</option>`,
		"Valid email is required",
		"Signup failed",
		`data-client_id="client-123"`,
		`data-login_uri="https://qd.example.com/auth/google/callback"`,
		`name="csrf_token" value="csrf-abc"`,
	)
}

func TestRenderer_AuthPage_LoginHidesSignupFields(t *testing.T) {
	r := newTestRenderer(t)
	f := form.New(form.ModeLogin)
	f.Notice = form.NoticeSignedUp
	f.Email = "a@b.co"

	body := render(t, r, PageAuth, AuthPage{Base: NewBase(false, ""), Form: f})

	assertContains(t, body, `action="/login"`, form.NoticeSignedUp, `value="a@b.co"`)
	if strings.Contains(body, `name="first_name"`) {
		t.Error("login form should not contain signup-only fields")
	}
	if strings.Contains(body, "g_id_onload") {
		t.Error("google button should be hidden without client id")
	}
}

func TestRenderer_Dashboard(t *testing.T) {
	r := newTestRenderer(t)

	body := render(t, r, PageDashboard, DashboardPage{
		Base: NewBase(true, ""),
		Profile: &model.UserProfile{
			FirstName: "Dahyun", LastName: "Kim", Email: "dahyun@example.com",
			DateOfBirth: "1998-05-28", Gender: "Female", Country: "Korea",
		},
	})
	assertContains(t, body, "Welcome, Dahyun!", "Name: Dahyun Kim", "Email: dahyun@example.com")

	failed := render(t, r, PageDashboard, DashboardPage{Base: NewBase(true, ""), ErrorMessage: "Failed to load"})
	assertContains(t, failed, "Failed to load")
}

func TestRenderer_BlogPages(t *testing.T) {
	r := newTestRenderer(t)
	base := NewBase(false, "")

	list := render(t, r, PageBlogList, BlogListPage{
		Base:  base,
		Posts: []blog.Summary{{Title: "Hello World", Slug: "hello-world", Preview: "First..."}},
	})
	assertContains(t, list, `href="/blog/title/hello-world"`, "First...")

	listErr := render(t, r, PageBlogList, BlogListPage{Base: base, ErrorMessage: blog.MessageListFailed})
	assertContains(t, listErr, blog.MessageListFailed, "Try again")

	post := render(t, r, PageBlogPost, BlogPostPage{
		Base: base,
		Slug: "hello-world",
		Post: &blog.Post{
			Title: "Hello World",
			Blocks: []blog.Block{
				{Type: "text", HTML: template.HTML("<p>safe <strong>body</strong></p>")},
				{Type: "image", URL: "https://media.example.com/a.png"},
			},
		},
	})
	assertContains(t, post, "<p>safe <strong>body</strong></p>", `src="https://media.example.com/a.png"`)

	notFound := render(t, r, PageBlogPost, BlogPostPage{Base: base, Slug: "missing", NotFound: true})
	assertContains(t, notFound, "Post not found")
}

func TestRenderer_EscapesUserInput(t *testing.T) {
	r := newTestRenderer(t)
	f := form.New(form.ModeLogin)
	f.Email = `"><script>alert(1)</script>`

	body := render(t, r, PageAuth, AuthPage{Base: NewBase(false, ""), Form: f})

	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("user input should be escaped")
	}
}

func TestRenderer_UnknownPage_Returns500(t *testing.T) {
	r := newTestRenderer(t)
	w := httptest.NewRecorder()

	r.Render(w, http.StatusOK, "no-such-page", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}
