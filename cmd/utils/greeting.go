package utils

import "time"

// GreetingMessage returns the dashboard header greeting for the hour of day.
func GreetingMessage(now time.Time) string {
	hour := now.Hour()
	switch {
	case hour < 5:
		return "You're up early!"
	case hour < 12:
		return "Good Morning"
	case hour < 17:
		return "Good Afternoon"
	case hour < 21:
		return "Good Evening"
	default:
		return "Good Night"
	}
}
