package redis

import "strings"

const keyNamespace = "ph"

const (
	idempotencyKeys  = "idempotency"
	rateLimitKeys    = "rate_limit"
	viewKeys         = "view"
	verificationKeys = "verification"
	lockKeys         = "lock"
)

// namespaced joins non-empty parts under the ph: prefix.
func namespaced(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespaced(idempotencyKeys, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return namespaced(rateLimitKeys, scope)
}

// ViewKey dedupes one viewer's views of an object per UTC day.
func (c *Client) ViewKey(viewer, day, objectID string) string {
	return namespaced(viewKeys, viewer, day, objectID)
}

// VerificationKey holds a pending code. Targets are case-insensitive.
func (c *Client) VerificationKey(purpose, userID, target string) string {
	return namespaced(verificationKeys, purpose, userID, strings.ToLower(target))
}

func (c *Client) LockKey(parts ...string) string {
	return namespaced(lockKeys, parts...)
}
