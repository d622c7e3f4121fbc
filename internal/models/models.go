package models

// User represents a registered account.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Document represents one ingested file and the text pulled out of it.
type Document struct {
	ID            int64  `db:"id" json:"id"`
	UserID        int64  `db:"user_id" json:"user_id"`
	Title         string `db:"title" json:"title"`
	FilePath      string `db:"file_path" json:"file_path"` // blob store location
	ExtractedText string `db:"extracted_text" json:"extracted_text"`
}
