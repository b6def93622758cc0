package recommend

import (
	"fmt"
	"math"
	"strings"
)

// Tier thresholds are stated to the model in USD; nothing here classifies locally.
const (
	lowTierCeilingUSD  = 200
	highTierFloorUSD   = 700
	candidatesPerQuery = 5
	attractionsPerSpot = 3
)

// buildRecommendationPrompt encodes the three budget tiers as instructions.
func buildRecommendationPrompt(budget int64, currency string, usdApprox float64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a travel planning assistant. A traveler has a total budget of %d %s", budget, currency)
	if currency != usd {
		fmt.Fprintf(&b, " (approximately %d USD)", int64(math.Round(usdApprox)))
	}
	b.WriteString(" for a trip.\n\n")

	b.WriteString("Follow exactly one of these rules, based on the budget in USD:\n")
	fmt.Fprintf(&b, "1. If the budget is less than %d USD, suggest exactly %d cities that are all located inside the home country of the %s currency.\n",
		lowTierCeilingUSD, candidatesPerQuery, currency)
	fmt.Fprintf(&b, "2. If the budget is between %d and %d USD, suggest exactly %d budget-friendly cities, each one from a different country.\n",
		lowTierCeilingUSD, highTierFloorUSD, candidatesPerQuery)
	fmt.Fprintf(&b, "3. If the budget is more than %d USD, suggest exactly %d diverse countries.\n\n",
		highTierFloorUSD, candidatesPerQuery)

	b.WriteString("Respond ONLY with a JSON array and no other text. Each element must be an object with:\n")
	b.WriteString(`- "name": the city or country name in English` + "\n")
	b.WriteString(`- "type": either "city" or "country"` + "\n")
	b.WriteString(`- "country": the full English country name, required when type is "city"` + "\n\n")
	b.WriteString(`Example: [{"name":"Austin","type":"city","country":"United States"},{"name":"Japan","type":"country"}]`)

	return b.String()
}

// buildAttractionsPrompt asks for a fixed number of attraction names.
func buildAttractionsPrompt(place string) string {
	return fmt.Sprintf(
		"List exactly %d famous tourist attractions in %s. "+
			"Respond ONLY with a JSON array of %d strings containing the attraction names, with no other text.",
		attractionsPerSpot, place, attractionsPerSpot,
	)
}
