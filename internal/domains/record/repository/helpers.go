package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"observatory-backend/internal/domains/record/model"
)

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// marshalOptional encode *T thành JSON text, nil => NULL
func marshalOptional[T any](v *T) (*string, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	s := string(data)
	return &s, nil
}

func unmarshalOptional[T any](data *string) (*T, error) {
	if data == nil {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(*data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return &v, nil
}

// weatherColumns tách WeatherSample thành 3 nullable columns
func weatherColumns(w *model.WeatherSample) (temp, cloud, light *float64) {
	if w == nil {
		return nil, nil, nil
	}
	return &w.TemperatureKelvin, &w.CloudinessPercent, &w.BackgroundLightVolume
}

func weatherFromColumns(temp, cloud, light *float64) *model.WeatherSample {
	if temp == nil || cloud == nil || light == nil {
		return nil
	}
	return &model.WeatherSample{
		TemperatureKelvin:     *temp,
		CloudinessPercent:     *cloud,
		BackgroundLightVolume: *light,
	}
}

// attachObservatories gắn observatories (đã sort theo record_id, position) vào records
func attachObservatories(records []*model.Record, byRecord map[int64][]model.Observatory) {
	for _, r := range records {
		r.Observatories = byRecord[r.ID]
	}
}
