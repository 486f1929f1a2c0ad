package domain

import "time"

// AnalysisRequestLog records one inbound analyze call. Append-only analytics.
type AnalysisRequestLog struct {
	ID        string    `json:"id" bson:"_id"`
	URL       string    `json:"url" bson:"url"`
	UserID    *string   `json:"userId,omitempty" bson:"user_id,omitempty"`
	Cached    bool      `json:"cached" bson:"cached"`
	UserAgent string    `json:"userAgent" bson:"user_agent"`
	IPAddress string    `json:"ipAddress" bson:"ip_address"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
