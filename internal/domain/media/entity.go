// internal/domain/media/entity.go
package media

import "time"

type Kind string

const (
	KindProducts       Kind = "products"
	KindCertifications Kind = "certifications"
)

func (k Kind) Valid() bool {
	return k == KindProducts || k == KindCertifications
}

type UploadRequest struct {
	Name        string `json:"name" binding:"required"`
	ContentType string `json:"contentType"`
}

// UploadTicket is handed to the browser: it PUTs the file to UploadURL and
// then stores FileURL on the product or certification record.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	FileURL   string    `json:"fileUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}
