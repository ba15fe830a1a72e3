package services

import "time"

func timeZero() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}
