package invite

import (
	"fmt"
	"strings"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// BuildInviteLink produces the shareable deep link for a token, of the
// shape scheme://invite/<token>.
func BuildInviteLink(scheme, token string) string {
	return fmt.Sprintf("%s://invite/%s", scheme, token)
}

// ParseInviteLink extracts the token from a deep link. The token is the
// final path segment; the host must be "invite". A bare token (no scheme)
// is accepted as-is so pasted tokens keep working.
func ParseInviteLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", fmt.Errorf("%w: empty invitation link", models.ErrValidation)
	}

	rest, ok := splitScheme(link)
	if !ok {
		if strings.ContainsAny(link, "/:") {
			return "", fmt.Errorf("%w: malformed invitation link", models.ErrValidation)
		}
		return link, nil
	}

	segments := strings.Split(strings.Trim(rest, "/"), "/")
	if len(segments) < 2 || segments[0] != "invite" {
		return "", fmt.Errorf("%w: malformed invitation link", models.ErrValidation)
	}
	token := segments[len(segments)-1]
	if token == "" {
		return "", fmt.Errorf("%w: invitation link carries no token", models.ErrValidation)
	}
	return token, nil
}

func splitScheme(link string) (string, bool) {
	i := strings.Index(link, "://")
	if i <= 0 {
		return "", false
	}
	return link[i+len("://"):], true
}
