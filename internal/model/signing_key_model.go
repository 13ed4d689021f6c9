package model

type SigningKey struct {
	ID         int    `gorm:"column:id;primaryKey;autoIncrement"`
	PrivateKey string `gorm:"column:private_key;not null"`
	CreatedAt  int64  `gorm:"column:created_at"`
}

func (SigningKey) TableName() string {
	return "signing_keys"
}
