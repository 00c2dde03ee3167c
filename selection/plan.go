package selection

import (
	"slices"
	"strconv"
	"strings"
)

// Plan is a dosage schedule attached to a selected medicine.
type Plan struct {
	Duration          string   `json:"duration"`
	Frequency         string   `json:"frequency"`
	Times             []string `json:"times"`
	CustomDuration    string   `json:"customDuration,omitempty"`
	CustomFrequency   string   `json:"customFrequency,omitempty"`
	CustomTime        string   `json:"customTime,omitempty"`
	IsCustomFrequency bool     `json:"isCustomFrequency"`
	MedicineName      string   `json:"medicineName,omitempty"`
	MedicineCode      string   `json:"medicineCode,omitempty"`
}

// NoPlan is rendered for selected medicines without a plan.
const NoPlan = "Fără plan"

var frequencyText = map[string]string{
	"1":  "o dată pe zi",
	"2":  "de două ori pe zi",
	"3":  "de trei ori pe zi",
	"4":  "de patru ori pe zi",
	"6":  "la 4 ore",
	"8":  "de opt ori pe zi",
	"12": "la 12 ore",
}

var timeText = map[string]string{
	"dimineata": "dimineața",
	"amiaza":    "amiaza",
	"seara":     "seara",
	"noaptea":   "noaptea",
	"la4ore":    "la 4 ore",
	"la6ore":    "la 6 ore",
	"la8ore":    "la 8 ore",
	"la12ore":   "la 12 ore",
}

// positiveNumber reports whether s parses as a number greater than zero.
func positiveNumber(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && f > 0
}

// Normalize commits valid custom values and drops invalid ones.
// A custom duration or frequency wins over the preset choice.
func (p Plan) Normalize() Plan {
	out := p
	out.Times = nil
	for _, t := range p.Times {
		if t = strings.TrimSpace(t); t != "" && !slices.Contains(out.Times, t) {
			out.Times = append(out.Times, t)
		}
	}

	out.CustomDuration = strings.TrimSpace(p.CustomDuration)
	if positiveNumber(out.CustomDuration) {
		out.Duration = out.CustomDuration
	} else {
		out.CustomDuration = ""
	}

	out.CustomFrequency = strings.TrimSpace(p.CustomFrequency)
	if positiveNumber(out.CustomFrequency) {
		out.Frequency = out.CustomFrequency
		out.IsCustomFrequency = true
	} else {
		out.CustomFrequency = ""
		out.IsCustomFrequency = false
	}

	out.CustomTime = strings.TrimSpace(p.CustomTime)
	if out.CustomTime != "" && !slices.Contains(out.Times, out.CustomTime) {
		out.Times = append(out.Times, out.CustomTime)
	}

	out.Duration = strings.TrimSpace(out.Duration)
	out.Frequency = strings.TrimSpace(out.Frequency)
	return out
}

// IsEmpty reports a plan carrying no duration, frequency or time.
func (p Plan) IsEmpty() bool {
	return p.Duration == "" && p.Frequency == "" && len(p.Times) == 0
}

// Describe renders the plan as shown on screen, e.g. "7 zile | de două ori pe zi | dimineața | seara".
func (p Plan) Describe() string {
	return p.DescribeSep(" | ")
}

// DescribeSep renders the plan with a custom separator; printed documents use ", ".
func (p Plan) DescribeSep(sep string) string {
	var parts []string

	if p.Duration != "" {
		if p.Duration == "1" {
			parts = append(parts, "1 zi")
		} else {
			parts = append(parts, p.Duration+" zile")
		}
	}

	if p.Frequency != "" {
		text, ok := frequencyText[p.Frequency]
		if p.IsCustomFrequency || !ok {
			text = p.Frequency + " ori pe zi"
		}
		parts = append(parts, text)
	}

	if len(p.Times) > 0 {
		times := make([]string, len(p.Times))
		for i, t := range p.Times {
			if text, ok := timeText[t]; ok {
				times[i] = text
			} else {
				times[i] = t
			}
		}
		parts = append(parts, strings.Join(times, sep))
	}

	if len(parts) == 0 {
		return NoPlan
	}
	return strings.Join(parts, sep)
}
