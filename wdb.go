package metarelay

import (
	"encoding/json"
	"os"
	"path"
	"time"

	"github.com/everFinance/metarelay/schema"
	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqliteName = "relayer.db"
)

// Wdb stores the batch history.
type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) (*Wdb, error) {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel), // prod use warn
		CreateBatchSize: 200,
	})
	if err != nil {
		return nil, err
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}, nil
}

func NewSqliteDb(dir string) (*Wdb, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}
	db, err := gorm.Open(sqlite.Open(path.Join(dir, sqliteName)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDb, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer
	sqlDb.SetMaxOpenConns(1)
	log.Info("connect sqlite db success", "dir", dir)
	return &Wdb{Db: db}, nil
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.Batch{})
}

// InsertBatch records a flush result; a failed submission is stored as failed with the error.
func (w *Wdb) InsertBatch(res *schema.FlushResult) error {
	items := make([]schema.TxRequest, 0, len(res.Txs))
	for _, tx := range res.Txs {
		items = append(items, schema.ToTxRequest(tx))
	}
	by, err := json.Marshal(items)
	if err != nil {
		return err
	}
	batch := schema.Batch{
		BatchId:  res.BatchId,
		GasLimit: res.GasLimit,
		ItemNum:  len(res.Txs),
		Items:    datatypes.JSON(by),
		Status:   schema.BatchSubmitted,
	}
	if res.Succeeded() {
		batch.TxHash = res.TxHash.Hex()
	} else {
		batch.Status = schema.BatchFailed
		batch.ErrMsg = res.Err.Error()
	}
	return w.Db.Create(&batch).Error
}

func (w *Wdb) GetBatch(batchId string) (*schema.Batch, error) {
	res := &schema.Batch{}
	err := w.Db.Where("batch_id = ?", batchId).First(res).Error
	if err == gorm.ErrRecordNotFound {
		return nil, schema.ErrNotExist
	}
	return res, err
}

func (w *Wdb) GetSubmittedBatches(limit int) ([]schema.Batch, error) {
	res := make([]schema.Batch, 0, limit)
	err := w.Db.Where("status = ?", schema.BatchSubmitted).Order("id asc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) UpdateBatchStatus(batchId, status string, blockNumber uint64, errMsg string) error {
	return w.Db.Model(&schema.Batch{}).Where("batch_id = ?", batchId).Updates(map[string]interface{}{
		"status":       status,
		"block_number": blockNumber,
		"err_msg":      errMsg,
		"updated_at":   time.Now(),
	}).Error
}

func (w *Wdb) Close() {
	sqlDb, err := w.Db.DB()
	if err == nil {
		sqlDb.Close()
	}
}
