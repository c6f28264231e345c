package translator

import "fmt"

// refreshTemperature is the sampling floor for refresh requests. A refresh
// with the original low temperature would tend to reproduce the same output.
const refreshTemperature = 0.8

// RefreshRequest derives a cache-bypassing variant of a previous request with
// fresh sampling and no style hint. The previous request is not mutated.
func RefreshRequest(prev TranslateRequest, seed int) TranslateRequest {
	next := prev
	next.Rerun = nil
	next.Force = true
	next.Seed = &seed
	if next.Temperature < refreshTemperature {
		next.Temperature = refreshTemperature
	}
	return next
}

// RerunRequest derives a styled regeneration variant of a previous request.
// The previous translation is embedded so the prompt can steer away from it.
func RerunRequest(prev TranslateRequest, previousTranslation string, style RerunStyle) (TranslateRequest, error) {
	if !validRerunStyle(style) {
		return TranslateRequest{}, fmt.Errorf("%w: unknown rerun style %q", ErrInvalidRequest, style)
	}
	next := prev
	next.Force = true
	next.Rerun = &RerunHint{
		Style:               style,
		PreviousTranslation: previousTranslation,
	}
	return next, nil
}
