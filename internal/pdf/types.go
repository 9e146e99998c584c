package pdf

// FileInfo describes a document file found in the session directory
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// DocumentInfo holds file statistics and the document information
// dictionary of one document
type DocumentInfo struct {
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
	Pages        int    `json:"pages"`
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreatedDate  string `json:"created_date,omitempty"`
	Encrypted    bool   `json:"encrypted"`
	HasFields    bool   `json:"has_fields"`
	// Denied lists the operations refused by the permissions of an
	// encrypted document
	Denied    []string `json:"denied,omitempty"`
	FillForms bool     `json:"fill_forms"`
}

const timeLayout = "2006-01-02 15:04:05"
