package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 收货/账单地址
type Address struct {
	ID         uint           `gorm:"primarykey" json:"id"`                          // 主键
	UserID     uint           `gorm:"index;not null" json:"user_id"`                 // 所属用户ID
	FullName   string         `gorm:"not null" json:"full_name"`                     // 收件人
	Phone      string         `gorm:"type:varchar(32)" json:"phone"`                 // 电话
	Line1      string         `gorm:"not null" json:"line1"`                         // 地址行1
	Line2      string         `gorm:"default:''" json:"line2"`                       // 地址行2
	City       string         `gorm:"not null" json:"city"`                          // 城市
	State      string         `gorm:"default:''" json:"state"`                       // 省/州
	PostalCode string         `gorm:"type:varchar(20);not null" json:"postal_code"`  // 邮编
	Country    string         `gorm:"type:varchar(2);not null" json:"country"`       // 国家（ISO 3166-1 alpha-2）
	IsDefault  bool           `gorm:"not null;default:false" json:"is_default"`      // 是否默认地址
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
