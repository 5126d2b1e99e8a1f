package types

// UploadForm 上传表单的非文件字段.
type UploadForm struct {
	UserID      string `form:"user_id"     json:"user_id,omitempty"`
	Description string `form:"description" json:"description,omitempty"`
}

// UploadResponse 仅上传（不含分类）的响应.
// Logged 表示扫描记录是否成功写入；写入失败不影响上传本身的成功状态.
type UploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Filename string `json:"filename"`
	UserID   string `json:"user_id"`
	ScanID   string `json:"scan_id,omitempty"`
	Logged   bool   `json:"logged"`
	Warning  string `json:"warning,omitempty"`
}

// CompleteScanResponse 完整扫描（上传+分类+记录）的响应.
type CompleteScanResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	URL        string  `json:"url"`
	PublicID   string  `json:"public_id"`
	Filename   string  `json:"filename"`
	UserID     string  `json:"user_id"`
	ScanID     string  `json:"scan_id,omitempty"`
	Logged     bool    `json:"logged"`
	Warning    string  `json:"warning,omitempty"`
}
