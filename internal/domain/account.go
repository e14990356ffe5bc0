package domain

import "time"

// Account represents one Telegram user's Facebook destination and posting settings.
type Account struct {
	ChatID          int64
	PageID          string
	PageName        string
	AccessToken     string
	TokenExpiry     *time.Time // date the page token stops working, nullable
	Theme           string
	IntervalMinutes int
	AutoPostEnabled bool
	CreatedAt       time.Time // UTC
}

// HasCredentials reports whether the account can publish at all.
func (a *Account) HasCredentials() bool {
	return a != nil && a.AccessToken != "" && a.PageID != ""
}

// DaysUntilExpiry returns whole calendar days between today and the token
// expiry date, both truncated to midnight UTC. Returns false if no expiry is set.
func (a *Account) DaysUntilExpiry(now time.Time) (int, bool) {
	if a.TokenExpiry == nil {
		return 0, false
	}
	today := truncateDay(now)
	expiry := truncateDay(*a.TokenExpiry)
	return int(expiry.Sub(today).Hours() / 24), true
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Post is one row of the append-only publish log.
type Post struct {
	ChatID   int64
	PostID   string
	Message  string
	PostedAt time.Time // UTC
}
