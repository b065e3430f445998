package config

// IpRateWhitelist rows exempt an origin or client ip from the submission rate limit.
type IpRateWhitelist struct {
	ID          uint   `gorm:"primarykey"`
	OriginOrIP  string `gorm:"uniqueIndex;size:128"` // e.g "188.0.2.2"
	Available   bool   `gorm:"index:idx3"`           // true means effective
	Description string
}
