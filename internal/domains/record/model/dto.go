package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ========================================
// REQUEST
// ========================================

// ObservatoryRequest - một entry trong metadata.observatory.
// WantsWeather = client gửi key observatory_weather (giá trị bất kỳ).
type ObservatoryRequest struct {
	Latitude     float64
	Longitude    float64
	Name         string
	WantsWeather bool
}

// RecordRequest là body POST/PUT /datarecord sau khi đã validate.
// Chỉ được tạo bởi ParseRecordRequest.
type RecordRequest struct {
	TargetBodyName  string
	CenterBodyName  string
	Epoch           string
	OrbitalElements *OrbitalElements
	StateVector     *StateVector
	Payload         string
	Owner           string // "" nếu client không gửi record_owner
	UpdateReason    *string
	Observatories   []ObservatoryRequest
}

// ParseRecordRequest decode và validate body theo đúng thứ tự kiểm tra:
// top-level fields -> metadata -> observatories -> schema của orbital_elements/state_vector.
// Lỗi luôn là *RecordError với message trả thẳng cho client.
func ParseRecordRequest(body []byte) (*RecordRequest, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, NewMalformedJSONError()
	}

	// STEP 1: REQUIRED TOP-LEVEL FIELDS
	if !hasKeys(raw, "target_body_name", "center_body_name", "epoch") {
		return nil, NewInvalidInputError(MsgMissingFields)
	}
	_, hasOrbital := raw["orbital_elements"]
	_, hasState := raw["state_vector"]
	if !hasOrbital && !hasState {
		return nil, NewInvalidInputError(MsgMissingOrbitalOrState)
	}

	req := &RecordRequest{}
	var ok bool
	if req.TargetBodyName, ok = raw["target_body_name"].(string); !ok {
		return nil, NewMalformedJSONError()
	}
	if req.CenterBodyName, ok = raw["center_body_name"].(string); !ok {
		return nil, NewMalformedJSONError()
	}
	if req.Epoch, ok = raw["epoch"].(string); !ok {
		return nil, NewMalformedJSONError()
	}

	var orbitalRaw, stateRaw map[string]any
	if hasOrbital {
		if orbitalRaw, ok = raw["orbital_elements"].(map[string]any); !ok {
			return nil, NewMalformedJSONError()
		}
	}
	if hasState {
		if stateRaw, ok = raw["state_vector"].(map[string]any); !ok {
			return nil, NewMalformedJSONError()
		}
	}

	if err := requireNonBlank(req.TargetBodyName, req.CenterBodyName, req.Epoch); err != nil {
		return nil, NewInvalidInputError(MsgEmptyFields)
	}

	// STEP 2: METADATA
	metaValue, hasMeta := raw["metadata"]
	if !hasMeta {
		return nil, NewInvalidInputError(MsgMissingMetadata)
	}
	metadata, ok := metaValue.(map[string]any)
	if !ok {
		return nil, NewMalformedJSONError()
	}

	payloadValue, hasPayload := metadata["record_payload"]
	if !hasPayload {
		return nil, NewInvalidInputError(MsgMissingPayload)
	}
	if req.Payload, ok = payloadValue.(string); !ok {
		return nil, NewMalformedJSONError()
	}
	if err := requireNonBlank(req.Payload); err != nil {
		return nil, NewInvalidInputError(MsgEmptyPayload)
	}

	if v, exists := metadata["record_owner"]; exists {
		if req.Owner, ok = v.(string); !ok {
			return nil, NewMalformedJSONError()
		}
	}
	if v, exists := metadata["update_reason"]; exists {
		reason, ok := v.(string)
		if !ok {
			return nil, NewMalformedJSONError()
		}
		req.UpdateReason = &reason
	}

	// STEP 3: OBSERVATORIES
	if v, exists := metadata["observatory"]; exists {
		observatories, err := parseObservatories(v)
		if err != nil {
			return nil, err
		}
		req.Observatories = observatories
	}

	// STEP 4: SCHEMA VALIDATION
	if hasOrbital {
		if !ValidateOrbitalElements(orbitalRaw) {
			return nil, NewInvalidInputError(MsgInvalidOrbitalElements)
		}
		req.OrbitalElements = toOrbitalElements(orbitalRaw)
	}
	if hasState {
		if !ValidateStateVector(stateRaw) {
			return nil, NewInvalidInputError(MsgInvalidStateVector)
		}
		req.StateVector = toStateVector(stateRaw)
	}

	return req, nil
}

// ToRecord build entity mới; id, TimeReceived, Edited do store gán
func (r *RecordRequest) ToRecord(owner string) *Record {
	record := &Record{
		TargetBodyName:  r.TargetBodyName,
		CenterBodyName:  r.CenterBodyName,
		Epoch:           r.Epoch,
		OrbitalElements: r.OrbitalElements,
		StateVector:     r.StateVector,
		Payload:         r.Payload,
		Owner:           owner,
		UpdateReason:    r.UpdateReason,
	}
	for _, o := range r.Observatories {
		record.Observatories = append(record.Observatories, Observatory{
			Latitude:  o.Latitude,
			Longitude: o.Longitude,
			Name:      o.Name,
		})
	}
	return record
}

func parseObservatories(v any) ([]ObservatoryRequest, error) {
	entries, ok := v.([]any)
	if !ok {
		return nil, NewMalformedJSONError()
	}

	observatories := make([]ObservatoryRequest, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, NewMalformedJSONError()
		}
		if !ValidateObservatory(obj) {
			return nil, NewInvalidInputError(MsgInvalidObservatory)
		}

		lat, latOK := toCoordinate(obj["latitude"])
		lon, lonOK := toCoordinate(obj["longitude"])
		name, nameOK := obj["observatory_name"].(string)
		if !latOK || !lonOK || !nameOK {
			return nil, NewMalformedJSONError()
		}

		_, wantsWeather := obj["observatory_weather"]
		observatories = append(observatories, ObservatoryRequest{
			Latitude:     lat,
			Longitude:    lon,
			Name:         name,
			WantsWeather: wantsWeather,
		})
	}
	return observatories, nil
}

// toCoordinate chấp nhận number hoặc numeric string ("61.05")
func toCoordinate(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toOrbitalElements(obj map[string]any) *OrbitalElements {
	return &OrbitalElements{
		SemiMajorAxisAU:           number(obj["semi_major_axis_au"]),
		Eccentricity:              number(obj["eccentricity"]),
		InclinationDeg:            number(obj["inclination_deg"]),
		LongitudeAscendingNodeDeg: number(obj["longitude_ascending_node_deg"]),
		ArgumentOfPeriapsisDeg:    number(obj["argument_of_periapsis_deg"]),
		MeanAnomalyDeg:            number(obj["mean_anomaly_deg"]),
	}
}

func toStateVector(obj map[string]any) *StateVector {
	sv := &StateVector{}
	position, _ := obj["position_au"].([]any)
	velocity, _ := obj["velocity_au_per_day"].([]any)
	for i := 0; i < StateVectorComponents; i++ {
		sv.PositionAU[i] = number(position[i])
		sv.VelocityAUPerDay[i] = number(velocity[i])
	}
	return sv
}

// number giả định v đã qua isNumeric
func number(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.New("body is not a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return raw, nil
}

func hasKeys(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func requireNonBlank(values ...string) error {
	for _, v := range values {
		if err := validation.Validate(strings.TrimSpace(v), validation.Required); err != nil {
			return err
		}
	}
	return nil
}

// ========================================
// RESPONSE
// ========================================

type RecordResponse struct {
	TargetBodyName  string           `json:"target_body_name"`
	CenterBodyName  string           `json:"center_body_name"`
	Epoch           string           `json:"epoch"`
	OrbitalElements *OrbitalElements `json:"orbital_elements,omitempty"`
	StateVector     *StateVector     `json:"state_vector,omitempty"`
	Metadata        MetadataResponse `json:"metadata"`
}

type MetadataResponse struct {
	ID                 int64         `json:"id"`
	RecordTimeReceived string        `json:"record_time_received"`
	RecordOwner        string        `json:"record_owner"`
	RecordPayload      string        `json:"record_payload"`
	UpdateReason       *string       `json:"update_reason,omitempty"`
	Edited             *string       `json:"edited,omitempty"`
	Observatory        []Observatory `json:"observatory,omitempty"`
}
