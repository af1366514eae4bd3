package cli

import (
	"context"

	"github.com/dmitrijs2005/authboot/internal/client/bootstrap"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// report prints the user-facing message for err and passes err through.
func report(err error) error {
	if err != nil {
		printlnFn(UserMessage(err))
	}
	return err
}

// SignIn prompts for email and password and exchanges them for a session.
// The prompt returns once the bootstrap layer has observed the new session.
func (a *App) SignIn(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already signed in. Use 'signout' first.")
		return nil
	}

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.auth.SignIn(ctx, models.Credentials{Email: email, Password: string(password)}); err != nil {
		return report(err)
	}

	a.awaitState(ctx, bootstrap.StateAuthenticated)
	return nil
}

// SignUp collects the sign-up form and creates the account. When the project
// requires email confirmation no session is issued and the user is told to
// check their inbox.
func (a *App) SignUp(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already signed in. Use 'signout' first.")
		return nil
	}

	var form models.SignUpForm
	var err error

	if form.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return err
	}
	if form.Username, err = getSimpleText(a.reader, "Username", a.out); err != nil {
		return err
	}
	if form.DisplayName, err = getSimpleText(a.reader, "Display name", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.out, "Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	form.Password, form.ConfirmPassword = string(password), string(confirm)

	res, err := a.auth.SignUp(ctx, form)
	if err != nil {
		return report(err)
	}

	if res.Session == nil {
		printlnFn("Account created. Check " + res.User.Email + " for a confirmation link, then sign in.")
		return nil
	}

	a.awaitState(ctx, bootstrap.StateAuthenticated)
	return nil
}

// SignOut ends the session. The local session is dropped even if the
// provider cannot be reached.
func (a *App) SignOut(ctx context.Context) error {
	if !a.isLoggedIn() {
		printlnFn("Not signed in.")
		return nil
	}

	if err := a.session.SignOut(ctx); err != nil {
		return report(err)
	}

	a.awaitState(ctx, bootstrap.StateUnauthenticated)
	return nil
}
