package services

import (
	"log"
	"os"
	"strings"
)

var phrasebookDebugEnabled = false

func init() {
	// Enable debug logging if PHRASEBOOK_DEBUG=1 or PHRASEBOOK_DEBUG=true
	if v := os.Getenv("PHRASEBOOK_DEBUG"); v != "" {
		v = strings.ToLower(v)
		phrasebookDebugEnabled = v == "1" || v == "true" || v == "yes"
		if phrasebookDebugEnabled {
			log.Println("[PHRASEBOOK] Debug logging: ENABLED")
		}
	}
}

// debugLog logs only when PHRASEBOOK_DEBUG is enabled.
// Use this for per-request details: prompts, cache hits, quota arithmetic.
func debugLog(format string, args ...interface{}) {
	if phrasebookDebugEnabled {
		log.Printf("[PHRASEBOOK DEBUG] "+format, args...)
	}
}

// infoLog always logs important phrasebook events: provider calls, fallbacks, swallowed store errors.
func infoLog(format string, args ...interface{}) {
	log.Printf("[PHRASEBOOK] "+format, args...)
}

// truncateText shortens text to maxLen runes for log lines
func truncateText(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
