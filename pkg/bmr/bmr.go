// Package bmr estimates basal metabolic rate and daily energy needs.
package bmr

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput is returned for non-positive body measurements.
var ErrInvalidInput = errors.New("weight, height and age must be positive")

// Sex selects the sex-specific equation coefficients.
type Sex string

// Equation names a BMR formula.
type Equation string

// UnitSystem selects metric (kg, cm) or imperial (lb, ft and in) input.
type UnitSystem string

const (
	Male   Sex = "male"
	Female Sex = "female"

	MifflinStJeor  Equation = "mifflin"
	HarrisBenedict Equation = "harris-benedict"

	Metric   UnitSystem = "metric"
	Imperial UnitSystem = "imperial"
)

const (
	kgPerPound = 0.453592
	cmPerInch  = 2.54

	caloriesPerGramProtein = 4
	caloriesPerGramCarbs   = 4
	caloriesPerGramFat     = 9
)

var activityMultipliers = map[string]float64{
	"sedentary":         1.2,
	"lightly-active":    1.375,
	"moderately-active": 1.55,
	"very-active":       1.725,
	"extra-active":      1.9,
}

// ActivityMultiplier returns the TDEE multiplier for an activity level.
func ActivityMultiplier(level string) (float64, bool) {
	m, ok := activityMultipliers[strings.ToLower(strings.TrimSpace(level))]
	return m, ok
}

// Input describes the person. Metric input uses Weight in kilograms and
// Height in centimetres; imperial input uses Weight in pounds and Feet plus
// Inches for height.
type Input struct {
	Units    UnitSystem `json:"units" validate:"omitempty,oneof=metric imperial"`
	Weight   float64    `json:"weight" validate:"gt=0"`
	Height   float64    `json:"height" validate:"gte=0"`
	Feet     float64    `json:"feet" validate:"gte=0"`
	Inches   float64    `json:"inches" validate:"gte=0"`
	Age      float64    `json:"age" validate:"gt=0"`
	Sex      Sex        `json:"sex" validate:"required,oneof=male female"`
	Equation Equation   `json:"equation" validate:"omitempty,oneof=mifflin harris-benedict"`
	Activity string     `json:"activity"`
}

// Macro is one macronutrient target.
type Macro struct {
	Grams    float64 `json:"grams"`
	Calories float64 `json:"calories"`
}

// Result values are rounded to whole calories and grams.
type Result struct {
	BMR                float64 `json:"bmr"`
	TDEE               float64 `json:"tdee"`
	ActivityMultiplier float64 `json:"activityMultiplier"`
	Equation           string  `json:"equation"`

	MildLoss       float64 `json:"mildLoss"`
	ModerateLoss   float64 `json:"moderateLoss"`
	AggressiveLoss float64 `json:"aggressiveLoss"`
	MildGain       float64 `json:"mildGain"`
	ModerateGain   float64 `json:"moderateGain"`

	Protein Macro `json:"protein"`
	Carbs   Macro `json:"carbs"`
	Fat     Macro `json:"fat"`
}

// Calculate computes BMR, TDEE, calorie goals and a 30/40/30
// protein/carbs/fat split of maintenance calories.
func Calculate(in Input) (Result, error) {
	weightKg, heightCm, err := metricMeasurements(in)
	if err != nil {
		return Result{}, err
	}
	if !(weightKg > 0) || !(heightCm > 0) || !(in.Age > 0) ||
		math.IsInf(weightKg, 0) || math.IsInf(heightCm, 0) || math.IsInf(in.Age, 0) {
		return Result{}, ErrInvalidInput
	}

	sex := Sex(strings.ToLower(string(in.Sex)))
	if sex != Male && sex != Female {
		return Result{}, fmt.Errorf("unknown sex %q", in.Sex)
	}

	activity := in.Activity
	if activity == "" {
		activity = "sedentary"
	}
	multiplier, ok := ActivityMultiplier(activity)
	if !ok {
		return Result{}, fmt.Errorf("unknown activity level %q", in.Activity)
	}

	var bmr float64
	var name string
	switch Equation(strings.ToLower(string(in.Equation))) {
	case MifflinStJeor, "":
		name = "Mifflin-St Jeor"
		bmr = 10*weightKg + 6.25*heightCm - 5*in.Age
		if sex == Male {
			bmr += 5
		} else {
			bmr -= 161
		}
	case HarrisBenedict:
		name = "Harris-Benedict"
		if sex == Male {
			bmr = 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*in.Age
		} else {
			bmr = 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*in.Age
		}
	default:
		return Result{}, fmt.Errorf("unknown equation %q", in.Equation)
	}

	tdee := bmr * multiplier
	return Result{
		BMR:                math.Round(bmr),
		TDEE:               math.Round(tdee),
		ActivityMultiplier: multiplier,
		Equation:           name,
		MildLoss:           math.Round(tdee - 250),
		ModerateLoss:       math.Round(tdee - 500),
		AggressiveLoss:     math.Round(tdee - 750),
		MildGain:           math.Round(tdee + 250),
		ModerateGain:       math.Round(tdee + 500),
		Protein:            macro(tdee*0.30, caloriesPerGramProtein),
		Carbs:              macro(tdee*0.40, caloriesPerGramCarbs),
		Fat:                macro(tdee*0.30, caloriesPerGramFat),
	}, nil
}

func metricMeasurements(in Input) (weightKg, heightCm float64, err error) {
	switch UnitSystem(strings.ToLower(string(in.Units))) {
	case Metric, "":
		return in.Weight, in.Height, nil
	case Imperial:
		return in.Weight * kgPerPound, (in.Feet*12 + in.Inches) * cmPerInch, nil
	default:
		return 0, 0, fmt.Errorf("unknown unit system %q", in.Units)
	}
}

func macro(calories, perGram float64) Macro {
	return Macro{
		Grams:    math.Round(calories / perGram),
		Calories: math.Round(calories),
	}
}
