package viewer

import (
	"log"
	"sync"
)

// Notifier surfaces recoverable failures to the user
type Notifier interface {
	Alert(message string)
}

// AlertLog keeps alerts until they are read, and optionally logs them
type AlertLog struct {
	mu     sync.Mutex
	alerts []string
	debug  bool
}

// NewAlertLog creates an alert log. With debug set alerts are also written to the standard logger.
func NewAlertLog(debug bool) *AlertLog {
	return &AlertLog{debug: debug}
}

// Alert records message
func (a *AlertLog) Alert(message string) {
	if a.debug {
		log.Printf("Alert: %s", message)
	}

	a.mu.Lock()
	a.alerts = append(a.alerts, message)
	a.mu.Unlock()
}

// Drain returns the recorded alerts and forgets them
func (a *AlertLog) Drain() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.alerts
	a.alerts = nil
	return out
}
