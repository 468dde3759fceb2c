package nutrition

import (
	"strings"
	"testing"
)

const validPayload = `{
  "foodItems": [
    {
      "name": "Apple",
      "description": "red apple",
      "ingredients": ["apple"],
      "nutrition": {"calories": 95, "protein": 0, "fat": 0, "carbs": 25, "fiber": 4, "sugar": 19, "sodium": 2},
      "portion": "1 medium",
      "healthScore": 9
    }
  ],
  "totalNutrition": {"calories": 95, "protein": 0, "fat": 0, "carbs": 25, "fiber": 4, "sugar": 19, "sodium": 2},
  "analysis": {"mealType": "snack", "healthRating": "excellent", "recommendations": [], "warnings": []}
}`

func TestParse_Valid(t *testing.T) {
	result, err := Parse(validPayload)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if len(result.FoodItems) != 1 {
		t.Fatalf("expected 1 food item, got %d", len(result.FoodItems))
	}
	item := result.FoodItems[0]
	if item.Name != "Apple" {
		t.Errorf("unexpected name %q", item.Name)
	}
	if item.Nutrition.Calories != 95 {
		t.Errorf("unexpected calories %v", item.Nutrition.Calories)
	}
	if item.HealthScore != 9 {
		t.Errorf("unexpected health score %v", item.HealthScore)
	}
	if result.Analysis.MealType != MealSnack {
		t.Errorf("unexpected meal type %q", result.Analysis.MealType)
	}
	if result.Analysis.HealthRating != RatingExcellent {
		t.Errorf("unexpected rating %q", result.Analysis.HealthRating)
	}
	if result.Analysis.Recommendations == nil || result.Analysis.Warnings == nil {
		t.Error("recommendation/warning slices should never be nil")
	}
}

func TestParse_FencedPayload(t *testing.T) {
	fenced := "```json\n" + validPayload + "\n```"
	result, err := Parse(fenced)
	if err != nil {
		t.Fatalf("Parse of fenced payload failed: %v", err)
	}
	if result.TotalNutrition.Carbs != 25 {
		t.Errorf("unexpected carbs %v", result.TotalNutrition.Carbs)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "the meal looks delicious"},
		{"prose around json", "Here you go: {\"foodItems\": []}"},
		{"empty items", `{"foodItems": [], "totalNutrition": {"calories":1,"protein":1,"fat":1,"carbs":1,"fiber":1,"sugar":1,"sodium":1}, "analysis": {"mealType":"snack","healthRating":"good"}}`},
		{"missing analysis", strings.Replace(validPayload, `"analysis"`, `"verdict"`, 1)},
		{"missing calories", strings.Replace(validPayload, `"calories": 95, `, ``, 2)},
		{"negative sodium", strings.Replace(validPayload, `"sodium": 2`, `"sodium": -2`, 2)},
		{"missing health score", strings.Replace(validPayload, `"healthScore": 9`, `"healthScore": null`, 1)},
		{"health score out of range", strings.Replace(validPayload, `"healthScore": 9`, `"healthScore": 42`, 1)},
		{"unknown meal type", strings.Replace(validPayload, `"mealType": "snack"`, `"mealType": "brunch"`, 1)},
		{"unknown rating", strings.Replace(validPayload, `"healthRating": "excellent"`, `"healthRating": "amazing"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.payload); err == nil {
				t.Error("expected parse failure, got nil error")
			}
		})
	}
}

func TestParse_TrustsModelTotal(t *testing.T) {
	// The model's aggregate deliberately disagrees with the item sum; the
	// parser must accept it unchanged.
	payload := strings.Replace(validPayload,
		`"totalNutrition": {"calories": 95,`,
		`"totalNutrition": {"calories": 500,`, 1)

	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if result.TotalNutrition.Calories != 500 {
		t.Errorf("model total must be trusted as-is, got %v", result.TotalNutrition.Calories)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
		{"  {}\n", "{}"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
