package instance

import "os"

const defaultID = "worker-0"

// GetID returns the identifier for this worker instance. Deployments set
// SELLORA_WORKER_ID per replica; local runs fall back to a fixed name.
func GetID() string {
	if id := os.Getenv("SELLORA_WORKER_ID"); id != "" {
		return id
	}
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return defaultID
}
