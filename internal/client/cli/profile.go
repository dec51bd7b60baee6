package cli

import (
	"context"
	"errors"
	"os"

	"github.com/somtik/somtik-client/internal/client/models"
	"github.com/somtik/somtik-client/internal/common"
)

func printProfile(p *models.Profile) {
	printfFn("@%s\n", p.Username)
	if p.FullName != "" {
		printlnFn(p.FullName)
	}
	if p.Bio != "" {
		printlnFn(p.Bio)
	}
	printfFn("%d followers · %d following · %d likes\n",
		p.FollowersCount, p.FollowingCount, p.LikesCount)
}

// ShowProfile prints the signed-in user's profile, loading it first if it
// is not cached yet.
func (a *App) ShowProfile(ctx context.Context) error {
	p := a.profiles.Current()
	if p == nil {
		sess := a.sessions.Current()
		var err error
		if p, err = a.profiles.EnsureProfile(ctx, sess); err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				printlnFn("You are not signed in.")
			} else {
				printlnFn("Could not load your profile:", err)
			}
			return err
		}
	}
	printProfile(p)
	return nil
}

// EditProfile prompts for new profile field values, keeping any field the
// user leaves empty, and applies the resulting patch.
func (a *App) EditProfile(ctx context.Context) error {
	if a.profiles.Current() == nil {
		printlnFn("You are not signed in.")
		return common.ErrProfileNotLoaded
	}

	username, err := getSimpleText(a.reader, "Username (leave empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Full name (leave empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	bio, err := GetMultiline(a.reader, "Bio (leave empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	var patch models.ProfilePatch
	if username != "" {
		patch.Username = &username
	}
	if fullName != "" {
		patch.FullName = &fullName
	}
	if bio != "" {
		patch.Bio = &bio
	}

	if patch.IsEmpty() {
		printlnFn("Nothing to change.")
		return nil
	}

	p, err := a.profiles.UpdateProfile(ctx, patch)
	if err != nil {
		printlnFn("Could not update your profile:", err)
		return err
	}

	printlnFn("Profile updated.")
	printProfile(p)
	return nil
}

// RefreshProfile re-fetches the profile row, picking up counter changes
// made elsewhere in the system.
func (a *App) RefreshProfile(ctx context.Context) error {
	sess := a.sessions.Current()
	if sess == nil {
		printlnFn("You are not signed in.")
		return common.ErrUnauthorized
	}

	p, err := a.profiles.Refresh(ctx, sess.UserID)
	if err != nil {
		printlnFn("Could not refresh your profile:", err)
		return err
	}
	printProfile(p)
	return nil
}
