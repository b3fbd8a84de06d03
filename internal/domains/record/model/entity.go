package model

import "time"

// TimeLayout là format ISO-8601 UTC dùng cho record_time_received và edited.
// Storage giữ millisecond precision nên layout cũng dừng ở .000
const TimeLayout = "2006-01-02T15:04:05.000Z"

// UpdateReasonNotAvailable được lưu khi update không kèm update_reason
const UpdateReasonNotAvailable = "N/A"

// OrbitalElements - 6 Keplerian elements, tất cả bắt buộc
type OrbitalElements struct {
	SemiMajorAxisAU           float64 `json:"semi_major_axis_au"`
	Eccentricity              float64 `json:"eccentricity"`
	InclinationDeg            float64 `json:"inclination_deg"`
	LongitudeAscendingNodeDeg float64 `json:"longitude_ascending_node_deg"`
	ArgumentOfPeriapsisDeg    float64 `json:"argument_of_periapsis_deg"`
	MeanAnomalyDeg            float64 `json:"mean_anomaly_deg"`
}

// StateVector - position (AU) và velocity (AU/day), mỗi vector 3 components
type StateVector struct {
	PositionAU       [3]float64 `json:"position_au"`
	VelocityAUPerDay [3]float64 `json:"velocity_au_per_day"`
}

type WeatherSample struct {
	TemperatureKelvin     float64 `json:"temperature_in_kelvins"`
	CloudinessPercent     float64 `json:"cloudiness_percentage"`
	BackgroundLightVolume float64 `json:"background_light_volume"`
}

type Observatory struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Name      string         `json:"observatory_name"`
	Weather   *WeatherSample `json:"observatory_weather,omitempty"`
}

// Record là domain entity - ánh xạ bảng records + observatories
type Record struct {
	ID              int64
	TargetBodyName  string
	CenterBodyName  string
	Epoch           string
	OrbitalElements *OrbitalElements
	StateVector     *StateVector
	Payload         string
	TimeReceived    time.Time // set khi create, immutable
	Owner           string    // nickname, immutable
	UpdateReason    *string
	Edited          *time.Time
	Observatories   []Observatory
}

// FormatTime render timestamp theo TimeLayout (UTC)
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ToResponse chuyển entity sang JSON shape trả cho client
func (r *Record) ToResponse() RecordResponse {
	meta := MetadataResponse{
		ID:                 r.ID,
		RecordTimeReceived: FormatTime(r.TimeReceived),
		RecordOwner:        r.Owner,
		RecordPayload:      r.Payload,
		UpdateReason:       r.UpdateReason,
	}
	if r.Edited != nil {
		edited := FormatTime(*r.Edited)
		meta.Edited = &edited
	}
	if len(r.Observatories) > 0 {
		meta.Observatory = append([]Observatory(nil), r.Observatories...)
	}

	return RecordResponse{
		TargetBodyName:  r.TargetBodyName,
		CenterBodyName:  r.CenterBodyName,
		Epoch:           r.Epoch,
		OrbitalElements: r.OrbitalElements,
		StateVector:     r.StateVector,
		Metadata:        meta,
	}
}
