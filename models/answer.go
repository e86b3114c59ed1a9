package models

import "encoding/json"

// ResponseParameters configure the style of a generated answer.
type ResponseParameters struct {
	Tone              string `json:"tone"`
	DetailLevel       string `json:"detail_level"`
	Empathy           string `json:"empathy"`
	ProfessionalStyle string `json:"professional_style"`
}

func DefaultParameters() ResponseParameters {
	return ResponseParameters{
		Tone:              "balanced",
		DetailLevel:       "moderate",
		Empathy:           "moderate",
		ProfessionalStyle: "clinicallyBalanced",
	}
}

// WithDefaults fills every empty field from DefaultParameters.
func (p ResponseParameters) WithDefaults() ResponseParameters {
	d := DefaultParameters()
	if p.Tone == "" {
		p.Tone = d.Tone
	}
	if p.DetailLevel == "" {
		p.DetailLevel = d.DetailLevel
	}
	if p.Empathy == "" {
		p.Empathy = d.Empathy
	}
	if p.ProfessionalStyle == "" {
		p.ProfessionalStyle = d.ProfessionalStyle
	}
	return p
}

type DisplayMode string

const (
	DisplayDetailed   DisplayMode = "detailed"
	DisplaySimplified DisplayMode = "simplified"
)

func (m DisplayMode) Valid() bool {
	return m == DisplayDetailed || m == DisplaySimplified
}

type AnswerMetadata struct {
	Parameters ResponseParameters     `json:"response_parameters"`
	ParentName string                 `json:"parent_name,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// Answer is the canonical answer record handed to the UI. SimpleResponse and
// DetailedResponse are both set whenever any response text exists.
type Answer struct {
	SimpleResponse   string            `json:"simple_response"`
	DetailedResponse string            `json:"detailed_response"`
	Sources          []json.RawMessage `json:"sources"`
	Relationships    json.RawMessage   `json:"relationships,omitempty"`
	Metadata         AnswerMetadata    `json:"metadata"`
	ConversationID   string            `json:"conversation_id,omitempty"`
	QuestionID       string            `json:"question_id,omitempty"`
	IsHistorical     bool              `json:"is_historical"`
}

// Text returns the variant selected by the display mode.
func (a *Answer) Text(mode DisplayMode) string {
	if a == nil {
		return ""
	}
	if mode == DisplaySimplified {
		return a.SimpleResponse
	}
	return a.DetailedResponse
}

// NormalizeResponses applies the fallback rule: each variant falls back to the other,
// then to the legacy single response field.
func NormalizeResponses(simple, detailed, response string) (string, string) {
	s := firstNonEmpty(simple, response, detailed)
	d := firstNonEmpty(detailed, simple, response)
	return s, d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
