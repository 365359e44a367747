package presentation

import (
	"encoding/json"
	"io"
)

// Formatter writes DTOs as indented JSON.
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatPreview writes a funding dry run.
func (f *Formatter) FormatPreview(p PreviewDTO) error {
	return f.encode(p)
}

// FormatKey writes an explained correlation key.
func (f *Formatter) FormatKey(k KeyDTO) error {
	return f.encode(k)
}

// FormatWallets writes a user's linked wallets.
func (f *Formatter) FormatWallets(w WalletsDTO) error {
	if w.Wallets == nil {
		w.Wallets = []string{}
	}
	return f.encode(w)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
