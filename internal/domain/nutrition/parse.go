package nutrition

import (
	"fmt"
	"math"
	"strings"

	"github.com/bytedance/sonic"
)

// Wire structs use pointers for the numeric fields so that an absent field is
// distinguishable from an explicit zero. The model output is untrusted input;
// everything is checked here, once, before a typed value escapes.

type wireProfile struct {
	Calories *float64 `json:"calories"`
	Protein  *float64 `json:"protein"`
	Fat      *float64 `json:"fat"`
	Carbs    *float64 `json:"carbs"`
	Fiber    *float64 `json:"fiber"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
}

type wireFoodItem struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Ingredients []string     `json:"ingredients"`
	Nutrition   *wireProfile `json:"nutrition"`
	Portion     string       `json:"portion"`
	HealthScore *float64     `json:"healthScore"`
}

type wireAnalysis struct {
	MealType        string   `json:"mealType"`
	HealthRating    string   `json:"healthRating"`
	Recommendations []string `json:"recommendations"`
	Warnings        []string `json:"warnings"`
}

type wireResult struct {
	FoodItems      []wireFoodItem `json:"foodItems"`
	TotalNutrition *wireProfile   `json:"totalNutrition"`
	Analysis       *wireAnalysis  `json:"analysis"`
}

// StripFences removes surrounding markdown code-fence markup that some models
// emit despite being told not to.
func StripFences(content string) string {
	content = strings.ReplaceAll(content, "```json\n", "")
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```\n", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// Parse decodes and validates one model response payload. Any structural or
// range violation fails the whole parse; a partially valid result is never
// returned.
func Parse(content string) (*AnalysisResult, error) {
	var wire wireResult
	if err := sonic.Unmarshal([]byte(StripFences(content)), &wire); err != nil {
		return nil, fmt.Errorf("decode analysis JSON: %w", err)
	}

	if len(wire.FoodItems) == 0 {
		return nil, fmt.Errorf("no food items in response")
	}
	if wire.Analysis == nil {
		return nil, fmt.Errorf("missing analysis block")
	}

	result := &AnalysisResult{
		FoodItems: make([]FoodItem, 0, len(wire.FoodItems)),
	}

	for i, item := range wire.FoodItems {
		if item.Name == "" {
			return nil, fmt.Errorf("food item %d: missing name", i)
		}
		profile, err := checkProfile(item.Nutrition)
		if err != nil {
			return nil, fmt.Errorf("food item %q: %w", item.Name, err)
		}
		if item.HealthScore == nil {
			return nil, fmt.Errorf("food item %q: missing healthScore", item.Name)
		}
		score := *item.HealthScore
		if !isFinite(score) || score < 0 || score > 10 {
			return nil, fmt.Errorf("food item %q: healthScore %v out of range", item.Name, score)
		}
		ingredients := item.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		result.FoodItems = append(result.FoodItems, FoodItem{
			Name:        item.Name,
			Description: item.Description,
			Ingredients: ingredients,
			Nutrition:   profile,
			Portion:     item.Portion,
			HealthScore: score,
		})
	}

	total, err := checkProfile(wire.TotalNutrition)
	if err != nil {
		return nil, fmt.Errorf("totalNutrition: %w", err)
	}
	result.TotalNutrition = total

	mealType := MealType(wire.Analysis.MealType)
	if !mealType.IsValid() {
		return nil, fmt.Errorf("invalid mealType %q", wire.Analysis.MealType)
	}
	rating := HealthRating(wire.Analysis.HealthRating)
	if !rating.IsValid() {
		return nil, fmt.Errorf("invalid healthRating %q", wire.Analysis.HealthRating)
	}

	recommendations := wire.Analysis.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}
	warnings := wire.Analysis.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	result.Analysis = MealAnalysis{
		MealType:        mealType,
		HealthRating:    rating,
		Recommendations: recommendations,
		Warnings:        warnings,
	}

	return result, nil
}

func checkProfile(p *wireProfile) (Profile, error) {
	if p == nil {
		return Profile{}, fmt.Errorf("missing nutrition profile")
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"calories", p.Calories},
		{"protein", p.Protein},
		{"fat", p.Fat},
		{"carbs", p.Carbs},
		{"fiber", p.Fiber},
		{"sugar", p.Sugar},
		{"sodium", p.Sodium},
	}

	for _, f := range fields {
		if f.value == nil {
			return Profile{}, fmt.Errorf("missing %s", f.name)
		}
		if !isFinite(*f.value) || *f.value < 0 {
			return Profile{}, fmt.Errorf("%s has invalid value %v", f.name, *f.value)
		}
	}

	return Profile{
		Calories: *p.Calories,
		Protein:  *p.Protein,
		Fat:      *p.Fat,
		Carbs:    *p.Carbs,
		Fiber:    *p.Fiber,
		Sugar:    *p.Sugar,
		Sodium:   *p.Sodium,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
