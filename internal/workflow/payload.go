package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/EkyaSchools001/pdi-updated-sub000/pkg/errors"
)

// ReflectionData is the teacher's self-reflection form.
type ReflectionData struct {
	Rubric         Rubric         `json:"rubric" validate:"required"`
	Ratings        map[string]int `json:"ratings" validate:"dive,min=1,max=4"`
	Strengths      string         `json:"strengths" validate:"max=4000"`
	AreasForGrowth string         `json:"areasForGrowth" validate:"max=4000"`
	Evidence       string         `json:"evidence,omitempty" validate:"max=4000"`
}

// SettingData is the leader's goal-setting form.
type SettingData struct {
	Expectations    string     `json:"expectations" validate:"required,max=4000"`
	SuccessCriteria string     `json:"successCriteria" validate:"required,max=4000"`
	SupportPlan     string     `json:"supportPlan,omitempty" validate:"max=4000"`
	ReviewDate      *time.Time `json:"reviewDate,omitempty"`
}

// CompletionData is the leader's end-of-cycle evaluation.
type CompletionData struct {
	Evidence       string `json:"evidence" validate:"required,max=4000"`
	LeaderComments string `json:"leaderComments" validate:"required,max=4000"`
	Rating         int    `json:"rating,omitempty" validate:"omitempty,min=1,max=4"`
}

var payloadValidator = validator.New()

// DecodeReflection parses and validates a reflection for rubric. Drafts may
// leave indicators and narrative blank; submissions must rate every
// indicator and fill both narratives.
func DecodeReflection(raw json.RawMessage, rubric Rubric, draft bool) (ReflectionData, error) {
	var data ReflectionData
	if err := decodeStrict(raw, "reflectionData", &data); err != nil {
		return ReflectionData{}, err
	}
	if data.Rubric != rubric {
		return ReflectionData{}, invalid("reflectionData", fmt.Errorf("rubric must be %s", rubric))
	}

	allowed := make(map[string]struct{})
	for _, key := range RubricIndicators(rubric) {
		allowed[key] = struct{}{}
	}
	for key := range data.Ratings {
		if _, ok := allowed[key]; !ok {
			return ReflectionData{}, invalid("reflectionData", fmt.Errorf("indicator %q is not part of the %s rubric", key, rubric))
		}
	}

	if !draft {
		for key := range allowed {
			if _, ok := data.Ratings[key]; !ok {
				return ReflectionData{}, invalid("reflectionData", fmt.Errorf("indicator %q must be rated", key))
			}
		}
		if data.Strengths == "" || data.AreasForGrowth == "" {
			return ReflectionData{}, invalid("reflectionData", errors.New("strengths and areasForGrowth are required"))
		}
	}
	return data, nil
}

// DecodeGoalSetting parses and validates a goal-setting form.
func DecodeGoalSetting(raw json.RawMessage) (SettingData, error) {
	var data SettingData
	if err := decodeStrict(raw, "settingData", &data); err != nil {
		return SettingData{}, err
	}
	return data, nil
}

// DecodeCompletion parses and validates a completion form.
func DecodeCompletion(raw json.RawMessage) (CompletionData, error) {
	var data CompletionData
	if err := decodeStrict(raw, "completionData", &data); err != nil {
		return CompletionData{}, err
	}
	return data, nil
}

// decodeStrict rejects empty, null and unknown-field payloads instead of
// tolerating them.
func decodeStrict(raw json.RawMessage, field string, dst interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return invalid(field, fmt.Errorf("%s is required", field))
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid(field, err)
	}
	if dec.More() {
		return invalid(field, errors.New("trailing data"))
	}
	if err := payloadValidator.Struct(dst); err != nil {
		return invalid(field, err)
	}
	return nil
}

func invalid(field string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s: %v", field, err))
}
