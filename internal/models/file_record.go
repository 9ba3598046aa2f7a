package models

// FileRecord is one entry in the file index. The upload token is the map
// key in the persisted document, not a field of the record itself.
type FileRecord struct {
	Filename  string `json:"filename"`
	SavedName string `json:"saved_name"`
	Size      int64  `json:"size"`
	Timestamp int64  `json:"timestamp"`
	IP        string `json:"ip"`
	Uploader  string `json:"uploader"`
}
