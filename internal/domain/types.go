package domain

import "time"

// Session holds the most recent photo analysis for one Telegram user.
type Session struct {
	UserID    int64
	Analysis  string
	UpdatedAt time.Time
}
