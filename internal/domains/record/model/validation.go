package model

import "encoding/json"

// Schema validators chạy trên JSON đã decode với UseNumber.
// Chỉ trả bool; message lỗi do caller quyết định.

var orbitalElementFields = []string{
	"semi_major_axis_au",
	"eccentricity",
	"inclination_deg",
	"longitude_ascending_node_deg",
	"argument_of_periapsis_deg",
	"mean_anomaly_deg",
}

// StateVectorComponents - số components bắt buộc của position_au / velocity_au_per_day
const StateVectorComponents = 3

// ValidateOrbitalElements: đúng 6 fields, mỗi field là number (không null/string/bool/object).
// Key lạ bị từ chối vì entity chỉ lưu 6 fields này.
func ValidateOrbitalElements(obj map[string]any) bool {
	if obj == nil || len(obj) != len(orbitalElementFields) {
		return false
	}
	for _, field := range orbitalElementFields {
		v, ok := obj[field]
		if !ok || !isNumeric(v) {
			return false
		}
	}
	return true
}

// ValidateStateVector: position_au và velocity_au_per_day, mỗi cái đúng 3 numbers
func ValidateStateVector(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	return isNumericVector(obj["position_au"]) && isNumericVector(obj["velocity_au_per_day"])
}

// ValidateObservatory chỉ kiểm tra presence; kiểu của latitude/longitude
// được kiểm tra lúc parse và trả "Invalid JSON format".
func ValidateObservatory(obj map[string]any) bool {
	if obj == nil {
		return false
	}
	for _, field := range []string{"latitude", "longitude", "observatory_name"} {
		if _, ok := obj[field]; !ok {
			return false
		}
	}
	return true
}

func isNumericVector(v any) bool {
	arr, ok := v.([]any)
	if !ok || len(arr) != StateVectorComponents {
		return false
	}
	for _, elem := range arr {
		if !isNumeric(elem) {
			return false
		}
	}
	return true
}

func isNumeric(v any) bool {
	switch n := v.(type) {
	case json.Number:
		_, err := n.Float64()
		return err == nil
	case float64, float32, int, int64, int32:
		return true
	default:
		return false
	}
}
