package registry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTypesFromDir разбирает все *.yml файлы каталога в дескрипторы типов.
// Имя типа = имя файла без расширения.
func LoadTypesFromDir(dir string) (map[string]*TypeDescriptor, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no type descriptors found in %s", dir)
	}

	table := make(map[string]*TypeDescriptor, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		// Строгий разбор: неизвестные ключи в описании типа — ошибка.
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		var desc TypeDescriptor
		if err := dec.Decode(&desc); err != nil {
			return nil, fmt.Errorf("YAML error in %s: %w", path, err)
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		desc.Name = name
		table[name] = &desc
	}
	return table, nil
}
