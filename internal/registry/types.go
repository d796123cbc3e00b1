package registry

// TypeDescriptor описывает один тип сущности, доступный через API.
// Загружается из YAML-файла; имя типа берётся из имени файла.
type TypeDescriptor struct {
	Name     string            `yaml:"-" json:"name"`
	Table    string            `yaml:"table" json:"table"`
	IDColumn string            `yaml:"id_column" json:"id_column"` // default "id"
	Search   []string          `yaml:"search" json:"search"`       // columns probed by the free-text search argument
	Refs     map[string]string `yaml:"refs" json:"refs"`           // identifier-suffixed field -> referenced type name
}

// Column maps a request-level field name onto a table column. The logical
// field "id" hides the configured primary key column.
func (d *TypeDescriptor) Column(field string) string {
	if field == "id" {
		return d.IDColumn
	}
	return field
}

// RefTarget returns the expected type name for an identifier-bearing field.
// The "id" field always refers to the descriptor's own type; other fields are
// looked up in the refs table. Empty string means any registered type.
func (d *TypeDescriptor) RefTarget(field string) string {
	if field == "id" {
		return d.Name
	}
	if d.Refs != nil {
		return d.Refs[field]
	}
	return ""
}
