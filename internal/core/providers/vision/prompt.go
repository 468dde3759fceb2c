package vision

// Request policy. These are deliberate fidelity/latency trade-offs rather
// than caller-tunable knobs: a bounded completion budget and low temperature
// keep the response fast and deterministic, and the low image-detail hint
// caps vision token cost. Raising maxCompletionTokens or the detail level
// buys marginally richer ingredient lists at a direct latency/cost price.
const (
	maxCompletionTokens = 1000
	samplingTemperature = 0.1
)

const systemPrompt = `Analyze this food image and return ONLY valid JSON with this structure:
{
  "foodItems": [{"name": "string", "description": "string", "ingredients": ["string"], "nutrition": {"calories": number, "protein": number, "fat": number, "carbs": number, "fiber": number, "sugar": number, "sodium": number}, "portion": "string", "healthScore": number}],
  "totalNutrition": {"calories": number, "protein": number, "fat": number, "carbs": number, "fiber": number, "sugar": number, "sodium": number},
  "analysis": {"mealType": "breakfast|lunch|dinner|snack", "healthRating": "excellent|good|moderate|poor", "recommendations": ["string"], "warnings": ["string"]}
}
Identify all food items, estimate realistic portions, be precise with nutritional values. No markdown, no code blocks, no explanations.`

const userPrompt = `Analyze this food image for nutrition information.`
