package model

import (
	"encoding/json"
	"time"
)

// SurveyResponse is a free-form answer payload. It is persisted flat: the
// answer keys sit next to the server-stamped "timestamp".
type SurveyResponse struct {
	Answers   map[string]any
	Timestamp time.Time
}

const surveyTimestampKey = "timestamp"

func (r SurveyResponse) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Answers)+1)
	for k, v := range r.Answers {
		flat[k] = v
	}
	flat[surveyTimestampKey] = r.Timestamp
	return json.Marshal(flat)
}

func (r *SurveyResponse) UnmarshalJSON(data []byte) error {
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	r.Answers = make(map[string]any, len(flat))
	r.Timestamp = time.Time{}
	for k, v := range flat {
		if k == surveyTimestampKey {
			if s, ok := v.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					r.Timestamp = ts
					continue
				}
			}
		}
		r.Answers[k] = v
	}
	return nil
}
