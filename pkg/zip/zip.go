package zip

import (
	"archive/zip"
	"bytes"
	"time"
)

// Asset is one file destined for a generated package archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

// Archive writes the assets into a zip archive in the order given. Entry
// timestamps are zeroed so the same inputs always produce the same bytes.
func Archive(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		header := &zip.FileHeader{
			Name:     asset.Filename,
			Method:   zip.Deflate,
			Modified: time.Time{},
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
