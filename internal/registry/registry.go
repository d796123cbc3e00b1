package registry

import (
	"context"
	"fmt"
	"strings"

	"GraphQueryAPI/internal/gid"

	"github.com/pkg/errors"
)

// Registry is the static table of exposed types, populated once at startup.
var Registry = map[string]*TypeDescriptor{}

// InitRegistry loads descriptors from dir, then links and validates them.
// The set of exposed types is fixed after this call.
func InitRegistry(ctx context.Context, dir string) error {
	table, err := LoadDescriptorTable(ctx, dir)
	if err != nil {
		return fmt.Errorf("load error: %w", err)
	}
	Registry = table
	if err := ValidateRegistry(Registry); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// Has reports whether a type name is registered. Passed to gid.NewCodec.
func Has(name string) bool {
	_, ok := Registry[name]
	return ok
}

// Resolve returns the descriptor for a type name, or gid.ErrUnknownType.
func Resolve(name string) (*TypeDescriptor, error) {
	d, ok := Registry[name]
	if !ok {
		return nil, errors.Wrapf(gid.ErrUnknownType, "type %q", name)
	}
	return d, nil
}

// ValidateRegistry проверяет согласованность таблицы дескрипторов:
// имена типов, таблицы, ссылки refs на зарегистрированные типы.
func ValidateRegistry(table map[string]*TypeDescriptor) error {
	for name, d := range table {
		if strings.Contains(name, ":") {
			return fmt.Errorf("type %q: name must not contain ':'", name)
		}
		if d.Table == "" {
			return fmt.Errorf("type %q: table is required", name)
		}
		if d.IDColumn == "" {
			d.IDColumn = "id"
		}
		for field, target := range d.Refs {
			if !isIdentifierField(field) {
				return fmt.Errorf("type %q: ref field %q must end with _id or _ids", name, field)
			}
			if _, ok := table[target]; !ok {
				return fmt.Errorf("type %q: ref field %q points to unregistered type %q", name, field, target)
			}
		}
	}
	return nil
}

func isIdentifierField(field string) bool {
	return field == "id" || strings.HasSuffix(field, "_id") || strings.HasSuffix(field, "_ids")
}
