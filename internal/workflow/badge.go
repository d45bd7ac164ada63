package workflow

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Tone string

const (
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneInfo    Tone = "info"
	ToneNeutral Tone = "neutral"
)

// Badge is how a status is rendered in lists
type Badge struct {
	Label string `json:"label"`
	Tone  Tone   `json:"tone"`
}

var knownBadges = map[string]Badge{
	"pending":               {"Pending", ToneWarning},
	"overdue":               {"Overdue", ToneDanger},
	"responded":             {"Responded", ToneSuccess},
	"escalated":             {"Escalated", ToneInfo},
	"costing":               {"Costing", ToneInfo},
	"sent to hod":           {"Sent to HOD", ToneWarning},
	"sent to vertical head": {"Sent to Vertical Head", ToneWarning},
	"approved":              {"Approved", ToneSuccess},
	"disapproved":           {"Disapproved", ToneDanger},
	"open":                  {"Open", ToneInfo},
	"closed":                {"Closed", ToneNeutral},
	"converted":             {"Converted", ToneSuccess},
	"lost":                  {"Lost", ToneDanger},
}

// StatusBadge maps a status string to its badge. Unknown statuses are
// title-cased with a neutral tone.
func StatusBadge(status string) Badge {
	key := strings.ToLower(strings.Join(strings.Fields(status), " "))
	if key == "" {
		return Badge{Label: "Unknown", Tone: ToneNeutral}
	}
	if b, ok := knownBadges[key]; ok {
		return b
	}
	return Badge{Label: cases.Title(language.English).String(key), Tone: ToneNeutral}
}
