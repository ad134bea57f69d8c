package instance

import "os"

const fallbackID = "worker-0"

// GetID identifies this worker process in logs. WORKER_ID wins, then the
// host name.
func GetID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
