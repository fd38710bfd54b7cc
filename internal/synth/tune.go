package synth

import "fmt"

// RateAdjustment maps the UI speaking-rate scale (50-200, 100 = normal) to
// the provider's signed delta: 100 -> "+0%", 150 -> "+50%", 50 -> "-50%".
// Input outside the UI domain is a caller contract violation.
func RateAdjustment(percentage int) string {
	return fmt.Sprintf("%+d%%", percentage-100)
}

// VolumeAdjustment maps the UI volume scale (0-100) to the provider's
// relative-volume string: 80 -> "+80%". No shift, just sign formatting.
func VolumeAdjustment(percentage int) string {
	return fmt.Sprintf("%+d%%", percentage)
}
