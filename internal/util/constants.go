package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"

	// ActivityDateFormat 活动流里展示用的日期格式，例如 "Jan 2, 2006"
	ActivityDateFormat = "Jan 2, 2006"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

// 头像/封面上传相关常量
const (
	MimeImage       = "image/"
	MimeOctetStream = "application/octet-stream"
)

var (
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)
