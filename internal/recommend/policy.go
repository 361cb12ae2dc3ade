package recommend

// ShowSecondOption decides whether the runner-up clothing class is surfaced
// alongside the top pick: only when the top choice is not confidently
// dominant and either the runner-up is itself plausible or the margin
// between the two is thin.
func ShowSecondOption(prob1, prob2 float64) bool {
	return prob1 <= 0.6 && (prob2 > 0.25 || prob1-prob2 < 0.10)
}

// AdviceCategory is the rain-advice tier.
type AdviceCategory string

const (
	AdviceNotNecessary     AdviceCategory = "not_necessary"
	AdviceOptional         AdviceCategory = "optional"
	AdviceRecommended      AdviceCategory = "recommended"
	AdviceEssential        AdviceCategory = "essential"
	AdviceEssentialIntense AdviceCategory = "essential_intense_rain"
)

// RainAdvice is a rain-advice tier with its user-facing message.
type RainAdvice struct {
	Category AdviceCategory `json:"category"`
	Message  string         `json:"message"`
}

// adviceMessages keeps the wording the bot has always sent.
var adviceMessages = map[AdviceCategory]string{
	AdviceNotNecessary:     "Salir con ☔️ no es necesario hoy",
	AdviceOptional:         "Salir con ☔️ es opcional hoy",
	AdviceRecommended:      "Salir con ☔️ es recomendable hoy",
	AdviceEssential:        "Salir con ☔️ es imprenscindible hoy",
	AdviceEssentialIntense: "Salir con ☔️ es imprenscindible hoy, hay lluvia intensa",
}

// RainAdviceFor maps a precipitation probability (percent, 0-100) and a raw
// measured intensity to an advice tier. Intensity of 2 or more overrides the
// probability tiers entirely.
func RainAdviceFor(probPercent, intensity float64) RainAdvice {
	var category AdviceCategory
	switch {
	case intensity >= 2:
		category = AdviceEssentialIntense
	case probPercent < 30:
		category = AdviceNotNecessary
	case probPercent < 50:
		category = AdviceOptional
	case probPercent < 70:
		category = AdviceRecommended
	default:
		category = AdviceEssential
	}
	return RainAdvice{Category: category, Message: adviceMessages[category]}
}
