package models

import "strings"

// Label describes a diagnosis the classifier is known to emit.
type Label struct {
	Code        string
	DisplayName string
	Known       bool
}

var knownLabels = map[string]string{
	"Cataract":                 "Cataract",
	"Dry_AMD":                  "Dry age-related macular degeneration",
	"Glaucoma":                 "Glaucoma",
	"Hypertensive_Retinopathy": "Hypertensive retinopathy",
	"Mild_DR":                  "Mild diabetic retinopathy",
	"Moderate_DR":              "Moderate diabetic retinopathy",
	"Normal_Fundus":            "Normal fundus",
	"Pathological_Myopia":      "Pathological myopia",
	"Proliferate_DR":           "Proliferative diabetic retinopathy",
	"Severe_DR":                "Severe diabetic retinopathy",
	"Wet_AMD":                  "Wet age-related macular degeneration",
}

// LookupLabel resolves a classifier label. Unknown codes are passed through with
// underscores replaced, since the classifier is opaque and may grow new classes.
func LookupLabel(code string) Label {
	if name, ok := knownLabels[code]; ok {
		return Label{Code: code, DisplayName: name, Known: true}
	}
	return Label{Code: code, DisplayName: strings.ReplaceAll(code, "_", " ")}
}

// Languages accepted by the recommendation service.
const (
	LanguageEnglish = "en"
	LanguageHindi   = "hi"
)

func SupportedLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageHindi
}
