package clerk

import (
	"context"
	"fmt"

	clerksdk "github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// Profile is the subset of a Clerk user BarGuru stores.
type Profile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// Directory looks up users through the Clerk Backend API.
type Directory struct {
	users *user.Client
}

// NewDirectory creates a Directory authenticated with the instance secret key.
func NewDirectory(secretKey string) *Directory {
	config := &clerksdk.ClientConfig{}
	config.Key = clerksdk.String(secretKey)
	return &Directory{users: user.NewClient(config)}
}

// GetProfile fetches a user's primary email and names.
func (d *Directory) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	u, err := d.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clerk user %s: %w", userID, err)
	}
	return profileFromUser(u), nil
}

func profileFromUser(u *clerksdk.User) *Profile {
	p := &Profile{ID: u.ID}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	for _, e := range u.EmailAddresses {
		if e == nil {
			continue
		}
		if u.PrimaryEmailAddressID != nil && e.ID == *u.PrimaryEmailAddressID {
			p.Email = e.EmailAddress
			break
		}
		if p.Email == "" {
			p.Email = e.EmailAddress
		}
	}
	return p
}
