package netx

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/google/uuid"
)

// FormField is one part of a multipart/form-data body. Parts with a
// FileName are encoded as files.
type FormField struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

// MultipartBody encodes fields with a random boundary and returns the body
// together with its Content-Type header value.
func MultipartBody(fields []FormField) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.SetBoundary("Boundary-" + uuid.NewString()); err != nil {
		return nil, "", err
	}

	for _, f := range fields {
		h := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, f.Name)
		if f.FileName != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, f.FileName)
		}
		h.Set("Content-Disposition", disposition)
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
