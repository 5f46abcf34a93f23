package directory

import (
	"fmt"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/quizdeck/assessment-service/internal/models"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
}

// Directory resolves identities against the Casdoor organization the
// platform authenticates with. The assessment service never issues tokens
// itself; it only verifies and reads.
type Directory interface {
	VerifyToken(token string) (*Identity, error)
	GetUser(name string) (*Identity, error)
}

type Config struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

type casdoorDirectory struct {
	client *casdoorsdk.Client
}

func NewCasdoorDirectory(cfg Config) Directory {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &casdoorDirectory{client: client}
}

func (d *casdoorDirectory) VerifyToken(token string) (*Identity, error) {
	claims, err := d.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return identityFromUser(&claims.User), nil
}

func (d *casdoorDirectory) GetUser(name string) (*Identity, error) {
	user, err := d.client.GetUser(name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %q not found", name)
	}
	return identityFromUser(user), nil
}

func identityFromUser(user *casdoorsdk.User) *Identity {
	return &Identity{
		ID:    user.Id,
		Name:  user.Name,
		Email: user.Email,
		Role:  roleFromTag(user),
	}
}

// roleFromTag maps the directory's account tag onto a platform role.
// Unknown tags default to student, the least privileged role.
func roleFromTag(user *casdoorsdk.User) models.UserRole {
	if user.IsAdmin {
		return models.RoleAdmin
	}
	switch user.Tag {
	case "teacher":
		return models.RoleTeacher
	default:
		return models.RoleStudent
	}
}
