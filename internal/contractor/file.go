package contractor

import (
	"path"
	"strconv"
	"strings"
	"time"

	contractorDatamodel "github.com/frahmantamala/crm-backoffice/internal/core/datamodel/contractor"
	"github.com/google/uuid"
)

// File is the metadata of a document attached to a contractor. The bytes live
// elsewhere under StorageKey.
type File struct {
	ID             int64     `json:"id"`
	ContractorID   int64     `json:"contractor_id"`
	ServicePointID *int64    `json:"service_point_id"`
	SuggestionID   *int64    `json:"suggestion_id"`
	Staged         bool      `json:"staged"`
	Name           string    `json:"name"`
	MimeType       string    `json:"mime_type"`
	SizeBytes      int64     `json:"size_bytes"`
	StorageKey     string    `json:"storage_key"`
	UploadedBy     *int64    `json:"uploaded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func FileFromDataModel(f *contractorDatamodel.ContractorFile) *File {
	return &File{
		ID:             f.ID,
		ContractorID:   f.ContractorID,
		ServicePointID: f.ServicePointID,
		SuggestionID:   f.SuggestionID,
		Staged:         f.Staged,
		Name:           f.Name,
		MimeType:       f.MimeType,
		SizeBytes:      f.SizeBytes,
		StorageKey:     f.StorageKey,
		UploadedBy:     f.UploadedBy,
		CreatedAt:      f.CreatedAt,
	}
}

// StorageKey builds contractors/<id>/<uuid>/<name>.
func StorageKey(contractorID int64, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return path.Join("contractors", strconv.FormatInt(contractorID, 10), uuid.NewString(), base)
}
