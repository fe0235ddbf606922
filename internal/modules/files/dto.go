package files

type UploadResponse struct {
	Message        string   `json:"message"`
	FileID         int64    `json:"file_id"`
	FileName       string   `json:"file_name"`
	ProjectName    string   `json:"project_name"`
	SizeKB         float64  `json:"size_kb"`
	Tags           []string `json:"tags"`
	TotalStorageKB float64  `json:"total_storage_kb"`
}

type FileInfo struct {
	ID          int64    `json:"id"`
	FileName    string   `json:"file_name"`
	ProjectName string   `json:"project_name"`
	SizeKB      float64  `json:"size_kb"`
	UploadTime  string   `json:"upload_time"`
	Tags        []string `json:"tags"`
}

type FilesListResponse struct {
	Files []FileInfo `json:"files"`
}

type StorageInfo struct {
	UserID         string  `json:"user_id"`
	TotalStorageKB float64 `json:"total_storage_kb"`
	LastUpdated    *string `json:"last_updated"`
}
