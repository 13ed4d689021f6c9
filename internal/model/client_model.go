package model

type Client struct {
	ClientID             string `gorm:"column:client_id;primaryKey"`
	ClientSecret         string `gorm:"column:client_secret"`
	ClientName           string `gorm:"column:client_name"`
	GrantTypes           string `gorm:"column:grant_types"`           // JSON array
	Scopes               string `gorm:"column:scopes"`                // JSON array
	TokenDeliveryModes   string `gorm:"column:token_delivery_modes"`  // JSON array
	NotificationEndpoint string `gorm:"column:notification_endpoint"`
	CreatedAt            int64  `gorm:"column:created_at"`
	UpdatedAt            int64  `gorm:"column:updated_at"`
}

func (Client) TableName() string {
	return "clients"
}
