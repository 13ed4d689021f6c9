package model

// Request status values. Transitions are monotone: pending may move to
// approved, denied or expired; approved may only move to expired.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
	StatusExpired  = "expired"
)

// Token delivery modes
const (
	ModePoll = "poll"
	ModePing = "ping"
	ModePush = "push"
)

// Flow families sharing the request record
const (
	FlowBackchannel = "backchannel"
	FlowDevice      = "device"
)

type AuthorizationRequest struct {
	ID                   string `gorm:"column:id;primaryKey"`
	UserCode             string `gorm:"column:user_code;index"`
	Flow                 string `gorm:"column:flow;not null"`
	ClientID             string `gorm:"column:client_id;not null"`
	Scope                string `gorm:"column:scope;not null"`
	Status               string `gorm:"column:status;not null;default:pending"`
	DeliveryMode         string `gorm:"column:delivery_mode;not null"`
	BindingMessage       string `gorm:"column:binding_message"`
	UserID               string `gorm:"column:user_id"`
	Subject              string `gorm:"column:subject"`
	Nonce                string `gorm:"column:nonce"`
	AcrValues            string `gorm:"column:acr_values"`
	DenyReason           string `gorm:"column:deny_reason"`
	CreatedAt            int64  `gorm:"column:created_at;not null"`
	ExpiresAt            int64  `gorm:"column:expires_at;not null"`
	Interval             int    `gorm:"column:interval;not null"`
	PollCount            int    `gorm:"column:poll_count;default:0"`
	LastPollAt           int64  `gorm:"column:last_poll_at;default:0"`
	TokenIssued          bool   `gorm:"column:token_issued;default:false"`
	TokenIssuedAt        int64  `gorm:"column:token_issued_at;default:0"`
	NotificationEndpoint string `gorm:"column:notification_endpoint"`
	NotificationToken    string `gorm:"column:notification_token"`
}

func (AuthorizationRequest) TableName() string {
	return "authorization_requests"
}
