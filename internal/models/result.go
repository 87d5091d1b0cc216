package models

// ProcessedInvoice is one successfully processed upload
type ProcessedInvoice struct {
	// Filename is the upload name without its extension
	Filename string         `json:"filename"`
	Record   *InvoiceRecord `json:"dados"`
	PDF      []byte         `json:"-"`
}

// Failure reports why one upload could not be processed
type Failure struct {
	File    string `json:"file"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}
