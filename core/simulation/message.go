package simulation

import (
	"time"

	"github.com/kilianp07/ppmsim/core/model"
)

// Message is the envelope published for every telemetry update.
type Message struct {
	Data       map[string]any `json:"data"`
	SiteID     string         `json:"site_id"`
	GatewayID  string         `json:"gw_id"`
	DeviceID   string         `json:"pd_id"`
	ProjectID  string         `json:"p_id"`
	Timestamp  int64          `json:"timestamp"`
	MessageID  int            `json:"msg_id"`
	RetainFlag bool           `json:"retain_flag"`
}

// NewMessage builds the envelope carrying value for tag on hierarchy.
func NewMessage(hierarchy, tag string, value any, projectID string, at time.Time) Message {
	key := hierarchy + model.HierarchySeparator + tag
	return Message{
		Data: map[string]any{
			key:                value,
			key + "_hierarchy": hierarchy,
		},
		SiteID:    model.SiteID(hierarchy),
		ProjectID: projectID,
		Timestamp: at.UnixMilli(),
		MessageID: 1,
	}
}
