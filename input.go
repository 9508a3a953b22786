package changegate

import (
	"github.com/viant/changegate/model/request"
	"github.com/viant/structology/conv"
)

// NewRequestInput carries the fields of a request being created.
type NewRequestInput struct {
	ModuleCode  string              `json:"moduleCode,omitempty"`
	PathCode    string              `json:"pathCode,omitempty"`
	ProgramType request.ProgramType `json:"programType"`
	Description string              `json:"description,omitempty"`
	HasTested   bool                `json:"hasTested"`
}

// UpdateRequestInput replaces the editable header fields of a request.
type UpdateRequestInput struct {
	ModuleCode  string              `json:"moduleCode,omitempty"`
	PathCode    string              `json:"pathCode,omitempty"`
	ProgramType request.ProgramType `json:"programType"`
	Description string              `json:"description,omitempty"`
	HasTested   bool                `json:"hasTested"`
}

// FileInput carries one artifact being attached, with optional content.
type FileInput struct {
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	FileVersion  request.FileVersion `json:"fileVersion,omitempty"`
	DBObjectType string              `json:"dbObjectType,omitempty"`
	DBObjectName string              `json:"dbObjectName,omitempty"`
	DBSchemaName string              `json:"dbSchemaName,omitempty"`
	Content      []byte              `json:"content,omitempty"`
}

// FileUpdateInput replaces the editable metadata of an attached artifact.
type FileUpdateInput struct {
	Sequence     int                 `json:"sequence,omitempty"`
	Description  string              `json:"description,omitempty"`
	FileVersion  request.FileVersion `json:"fileVersion,omitempty"`
	DBObjectType string              `json:"dbObjectType,omitempty"`
	DBObjectName string              `json:"dbObjectName,omitempty"`
	DBSchemaName string              `json:"dbSchemaName,omitempty"`
}

// newConverter builds the converter used to coerce loose transport payloads
// (decoded JSON maps) into the typed inputs above.
func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// ConvertInput coerces a loose payload, typically a decoded JSON map, into
// the supplied typed input.
func (s *Service) ConvertInput(payload interface{}, target interface{}) error {
	return s.converter.Convert(payload, target)
}
