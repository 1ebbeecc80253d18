package request

type CreateCommentary struct {
	Minute    *int           `json:"minute,omitempty" validate:"omitempty,min=0"`
	Sequence  *int           `json:"sequence,omitempty" validate:"omitempty,min=0"`
	Period    string         `json:"period,omitempty"`
	EventType string         `json:"eventType,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Team      string         `json:"team,omitempty"`
	Message   string         `json:"message" validate:"required"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
}
