package notification

import (
	"context"
	"fmt"

	id "nonconf/pkg/domain"
)

// StaticDirectory maps users to email addresses from configuration. User
// management lives outside this service, so deployments provide the mapping
// (or rely on the fallback domain convention) instead of a directory lookup.
type StaticDirectory struct {
	emails         map[id.UserID]string
	fallbackDomain string
}

func NewStaticDirectory(emails map[id.UserID]string, fallbackDomain string) *StaticDirectory {
	return &StaticDirectory{emails: emails, fallbackDomain: fallbackDomain}
}

func (d *StaticDirectory) EmailFor(_ context.Context, userID id.UserID) (string, error) {
	if email, ok := d.emails[userID]; ok {
		return email, nil
	}
	if d.fallbackDomain == "" {
		return "", fmt.Errorf("no email on file for user %s", userID)
	}
	return fmt.Sprintf("%s@%s", userID, d.fallbackDomain), nil
}
