package nutrition

// MealType classifies which meal of the day the photo shows.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (m MealType) IsValid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// HealthRating is the model's overall verdict on the meal.
type HealthRating string

const (
	RatingExcellent HealthRating = "excellent"
	RatingGood      HealthRating = "good"
	RatingModerate  HealthRating = "moderate"
	RatingPoor      HealthRating = "poor"
)

func (r HealthRating) IsValid() bool {
	switch r {
	case RatingExcellent, RatingGood, RatingModerate, RatingPoor:
		return true
	}
	return false
}

// Profile holds the seven tracked nutrition values, per item or as a total.
// All fields are non-negative once past boundary validation.
type Profile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Fiber    float64 `json:"fiber"`
	Sugar    float64 `json:"sugar"`
	Sodium   float64 `json:"sodium"`
}

// FoodItem is one recognised food on the plate.
type FoodItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Nutrition   Profile  `json:"nutrition"`
	Portion     string   `json:"portion"`
	HealthScore float64  `json:"healthScore"`
}

// MealAnalysis is the model's qualitative assessment.
type MealAnalysis struct {
	MealType        MealType     `json:"mealType"`
	HealthRating    HealthRating `json:"healthRating"`
	Recommendations []string     `json:"recommendations"`
	Warnings        []string     `json:"warnings"`
}

// AnalysisResult is the full structured output of one vision analysis.
//
// TotalNutrition is the model's own aggregate. It is trusted as-is and may
// disagree with the sum of the per-item profiles; no reconciliation happens
// anywhere downstream.
type AnalysisResult struct {
	FoodItems      []FoodItem   `json:"foodItems"`
	TotalNutrition Profile      `json:"totalNutrition"`
	Analysis       MealAnalysis `json:"analysis"`
}
