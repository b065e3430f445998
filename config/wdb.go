package config

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Wdb struct {
	Db *gorm.DB
}

func NewWdb(db *gorm.DB) *Wdb {
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&IpRateWhitelist{})
}

func (w *Wdb) GetAllAvailableIpRateWhitelist() ([]IpRateWhitelist, error) {
	res := make([]IpRateWhitelist, 0)
	err := w.Db.Where("available = ?", true).Find(&res).Error
	return res, err
}

func (w *Wdb) UpsertIpRateWhitelist(item IpRateWhitelist) error {
	return w.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_or_ip"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "description"}),
	}).Create(&item).Error
}
