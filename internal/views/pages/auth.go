package pages

import (
	"github.com/a-h/templ"

	"herbarium/internal/views/components"
	"herbarium/internal/views/layout"
)

func formMessage(w *components.Writer, message string) {
	if message == "" {
		return
	}
	w.Raw("<p class=\"form-message\" role=\"alert\">")
	w.Text(message)
	w.Raw("</p>")
}

// LoginPartial renders the sign-in form alone for HTMX swaps.
func LoginPartial(message, email string) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<section id=\"auth-panel\" class=\"auth\"><h1>Sign in</h1>")
		formMessage(w, message)
		w.Raw("<form method=\"post\" action=\"/login\" hx-post=\"/login\" hx-target=\"#auth-panel\" hx-swap=\"outerHTML\">")
		w.Raw("<label>Email<input type=\"email\" name=\"email\" required")
		w.Attr("value", email)
		w.Raw("></label><label>Password<input type=\"password\" name=\"password\" required></label>")
		w.Raw("<button type=\"submit\">Sign in</button></form>")
		w.Raw("<p><a href=\"/password/reset\">Forgot your password?</a> · <a href=\"/signup\">Create an account</a></p></section>")
	})
}

// Login renders the full sign-in page.
func Login(message, email string) templ.Component {
	return layout.Layout(layout.Page{Title: "Sign in"}, LoginPartial(message, email))
}

// SignupPartial renders the registration form alone for HTMX swaps.
func SignupPartial(message, name, email string) templ.Component {
	return components.Render(func(w *components.Writer) {
		w.Raw("<section id=\"auth-panel\" class=\"auth\"><h1>Create an account</h1>")
		formMessage(w, message)
		w.Raw("<form method=\"post\" action=\"/signup\" hx-post=\"/signup\" hx-target=\"#auth-panel\" hx-swap=\"outerHTML\">")
		w.Raw("<label>Name<input type=\"text\" name=\"name\"")
		w.Attr("value", name)
		w.Raw("></label><label>Email<input type=\"email\" name=\"email\" required")
		w.Attr("value", email)
		w.Raw("></label><label>Password<input type=\"password\" name=\"password\" minlength=\"8\" required></label>")
		w.Raw("<label>Confirm password<input type=\"password\" name=\"confirm_password\" required></label>")
		w.Raw("<button type=\"submit\">Create account</button></form>")
		w.Raw("<p>Already registered? <a href=\"/login\">Sign in</a></p></section>")
	})
}

// Signup renders the full registration page.
func Signup(message, name, email string) templ.Component {
	return layout.Layout(layout.Page{Title: "Create an account"}, SignupPartial(message, name, email))
}

// PasswordResetRequest renders the form asking for the account email.
func PasswordResetRequest(page layout.Page, message, email string) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"auth\"><h1>Reset your password</h1>")
		formMessage(w, message)
		w.Raw("<form method=\"post\" action=\"/password/reset\"><label>Email<input type=\"email\" name=\"email\" required")
		w.Attr("value", email)
		w.Raw("></label><button type=\"submit\">Send reset link</button></form></section>")
	}))
}

// PasswordResetConfirm renders the new password form for a reset token.
func PasswordResetConfirm(page layout.Page, token, message string) templ.Component {
	return layout.Layout(page, components.Render(func(w *components.Writer) {
		w.Raw("<section class=\"auth\"><h1>Choose a new password</h1>")
		formMessage(w, message)
		w.Raw("<form method=\"post\" action=\"/password/reset/confirm\"><input type=\"hidden\" name=\"token\"")
		w.Attr("value", token)
		w.Raw("><label>New password<input type=\"password\" name=\"password\" minlength=\"8\" required></label>")
		w.Raw("<label>Confirm password<input type=\"password\" name=\"confirm_password\" required></label>")
		w.Raw("<button type=\"submit\">Update password</button></form></section>")
	}))
}
