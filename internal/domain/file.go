package domain

import "time"

// FileUpload is one uploaded document. The original text is retained in
// FileContent so the record can be re-uploaded to the search backend if the
// remote store and local bookkeeping ever drift apart.
type FileUpload struct {
	ID                  int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID              string    `gorm:"column:user_id;index;not null" json:"user_id"`
	FileName            string    `gorm:"column:file_name;not null" json:"file_name"`
	ProjectName         string    `gorm:"column:project_name;not null" json:"project_name"`
	FileSizeKB          float64   `gorm:"column:file_size_kb;not null" json:"file_size_kb"`
	UploadTime          time.Time `gorm:"column:upload_time;not null" json:"upload_time"`
	Tags                string    `gorm:"column:tags;type:text" json:"-"` // JSON-encoded list
	FileContent         string    `gorm:"column:file_content;type:text" json:"-"`
	FileSearchStoreName *string   `gorm:"column:file_search_store_name" json:"-"`
}

func (FileUpload) TableName() string { return "file_uploads" }

// UserStorage keeps one running total per user. It must always equal the sum
// of that user's FileUpload.FileSizeKB rows, so it is only ever written in
// the same transaction as a FileUpload insert.
type UserStorage struct {
	ID             int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	TotalStorageKB float64   `gorm:"column:total_storage_kb;not null" json:"total_storage_kb"`
	LastUpdated    time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (UserStorage) TableName() string { return "user_storage" }
