package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/authboot/internal/client/bootstrap"
	"github.com/dmitrijs2005/authboot/internal/client/models"
	"github.com/dmitrijs2005/authboot/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// maxAvatarSize caps avatar files read from disk.
const maxAvatarSize = 5 << 20

var errNotSignedIn = errors.New("not signed in")

// currentUser returns the signed-in snapshot or prints a hint.
func (a *App) currentUser() (bootstrap.Snapshot, bool) {
	snap := a.session.Snapshot()
	if snap.State != bootstrap.StateAuthenticated || snap.Session == nil {
		printlnFn("Not signed in. Use 'signin' first.")
		return snap, false
	}
	return snap, true
}

func (a *App) WhoAmI(ctx context.Context) error {
	snap, ok := a.currentUser()
	if !ok {
		return errNotSignedIn
	}

	printlnFn("ID:      " + snap.Session.User.ID)
	printlnFn("Email:   " + snap.Session.User.Email)
	printlnFn("Expires: " + snap.Session.Expiry.Local().Format("2006-01-02 15:04:05"))
	if snap.Profile != nil {
		printlnFn("Handle:  @" + snap.Profile.Username)
	} else {
		printlnFn("Handle:  (no profile yet)")
	}
	return nil
}

// profileFor loads the profile of the signed-in user, provisioning it on
// demand when bootstrap could not.
func (a *App) profileFor(ctx context.Context, user models.UserIdentity) (*models.Profile, error) {
	p, err := a.profiles.GetProfile(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	if p := a.profiles.EnsureProfileFor(ctx, user); p != nil {
		return p, nil
	}
	return nil, err
}

func (a *App) ShowProfile(ctx context.Context) error {
	snap, ok := a.currentUser()
	if !ok {
		return errNotSignedIn
	}

	p, err := a.profileFor(ctx, snap.Session.User)
	if err != nil {
		return report(err)
	}

	printProfile(p)
	return nil
}

func printProfile(p *models.Profile) {
	printlnFn("Username:     @" + p.Username)
	printlnFn("Display name: " + p.DisplayName)
	if p.Bio != nil {
		printlnFn("Bio:          " + *p.Bio)
	}
	if p.AvatarURL != nil {
		printlnFn("Avatar:       " + *p.AvatarURL)
	}
	printlnFn("Member since: " + p.CreatedAt.Local().Format("2006-01-02"))
}

// EditProfile prompts for a new display name and bio. Leaving the display
// name empty keeps the current one; an empty bio clears it.
func (a *App) EditProfile(ctx context.Context) error {
	snap, ok := a.currentUser()
	if !ok {
		return errNotSignedIn
	}

	name, err := getSimpleText(a.reader, "Display name (empty to keep)", a.out)
	if err != nil {
		return err
	}
	bio, err := getMultiline(a.reader, "Bio", a.out)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	if name != "" {
		upd.DisplayName = &name
	}
	upd.Bio = &bio

	p, err := a.profiles.UpdateProfile(ctx, snap.Session.User.ID, upd)
	if err != nil {
		return report(err)
	}

	printlnFn("Profile updated.")
	printProfile(p)
	return nil
}

// SetAvatar uploads the image at path as the user's avatar. The content type
// is sniffed from the file itself.
func (a *App) SetAvatar(ctx context.Context, path string) error {
	snap, ok := a.currentUser()
	if !ok {
		return errNotSignedIn
	}

	info, err := os.Stat(path)
	if err != nil {
		printlnFn("Cannot read file:", err)
		return err
	}
	if info.Size() > maxAvatarSize {
		err := fmt.Errorf("%w: avatar is larger than %d MiB", common.ErrValidation, maxAvatarSize>>20)
		return report(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Cannot read file:", err)
		return err
	}

	mt := mimetype.Detect(data)
	contentType, _, _ := strings.Cut(mt.String(), ";")

	p, err := a.profiles.SetAvatar(ctx, snap.Session.User.ID, models.AvatarUpload{Data: data, ContentType: contentType})
	if err != nil {
		return report(err)
	}

	printlnFn("Avatar updated: " + *p.AvatarURL)
	return nil
}

// Status prints connectivity and session state.
func (a *App) Status(ctx context.Context) error {
	mode := a.Mode()
	if mode == "" {
		mode = "unknown"
	}
	printlnFn("Connectivity: " + string(mode))

	snap := a.session.Snapshot()
	printlnFn("Session:      " + string(snap.State))
	if snap.State == bootstrap.StateAuthenticated && snap.Session != nil {
		printlnFn("User:         " + snap.Session.User.Email)
	}
	return nil
}
