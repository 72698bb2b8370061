package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeImage = "image/"
)

var (
	AllowedImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}
)

const (
	AnonymousStudentName = "Anonymous Student"
	CompletionMessage    = "🎉 Congratulations! You've completed the entire hunt!"
)
