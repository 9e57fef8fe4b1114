package instance

import "github.com/angelmondragon/pawhaven-backend/pkg/env"

// GetID names this process in logs: the Heroku dyno, then WORKER_ID, then "local".
func GetID() string {
	return env.First("local", "DYNO", "WORKER_ID")
}
