package auth

import (
	"context"
	"fmt"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// FirebaseProvider verifies Firebase ID tokens.
type FirebaseProvider struct {
	client *fbauth.Client
}

func NewFirebaseProvider(client *fbauth.Client) *FirebaseProvider {
	return &FirebaseProvider{client: client}
}

func (f *FirebaseProvider) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := f.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return identityFromClaims(token.UID, token.Claims), nil
}

// identityFromClaims suggests a username from the display name, then the
// email local part, then the uid. The stored profile has the final say.
func identityFromClaims(uid string, claims map[string]interface{}) *Identity {
	id := &Identity{UID: uid, Username: uid}
	email, _ := claims["email"].(string)
	id.Email = email
	if name, _ := claims["name"].(string); name != "" {
		id.Username = name
	} else if email != "" {
		id.Username, _, _ = strings.Cut(email, "@")
	}
	if pic, _ := claims["picture"].(string); pic != "" {
		id.PhotoURL = pic
	}
	return id
}
