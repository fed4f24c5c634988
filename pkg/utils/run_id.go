package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateRunID creates a short, readable ID for one simulation run.
// Format: run-{warehouse}-{8charHex}, e.g. "run-north-a3f8e2b1".
// Spaces and slashes in the warehouse name become hyphens.
func GenerateRunID(warehouseName string) string {
	name := strings.NewReplacer(" ", "-", "/", "-").Replace(strings.TrimSpace(warehouseName))
	if name == "" {
		name = "warehouse"
	}
	return "run-" + name + "-" + shortUUID()
}

// shortUUID returns the first 8 hex characters of a random UUID
func shortUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
