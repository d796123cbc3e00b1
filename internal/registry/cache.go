package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"GraphQueryAPI/internal/db"
	"GraphQueryAPI/internal/logger"
)

const descriptorCacheTTL = 2 * time.Hour

// LoadDescriptorTable returns the compiled descriptor table for dir, using
// Redis as a cache keyed by a content hash of the descriptor files. The cache
// holds only startup data; per-request values are never stored here.
func LoadDescriptorTable(ctx context.Context, dir string) (map[string]*TypeDescriptor, error) {
	if db.RDB == nil {
		return LoadTypesFromDir(dir)
	}

	hash, err := hashDescriptorDir(dir)
	if err != nil {
		return nil, err
	}
	redisKey := "typeregistry:" + hash

	// 1. Попытка загрузить из Redis
	if cached, err := db.RDB.Get(ctx, redisKey).Result(); err == nil {
		var table map[string]*TypeDescriptor
		if err := json.Unmarshal([]byte(cached), &table); err == nil {
			for name, d := range table {
				d.Name = name
			}
			return table, nil
		}
		// битый кэш — перестраиваем молча
		logger.Warn("descriptor_cache_invalid", map[string]any{"key": redisKey})
	}

	// 2. Сборка на лету
	table, err := LoadTypesFromDir(dir)
	if err != nil {
		return nil, err
	}

	// 3. Сохраняем в Redis; промах кэша не фатален
	jsonData, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("marshal descriptor table: %w", err)
	}
	if err := db.RDB.Set(ctx, redisKey, jsonData, descriptorCacheTTL).Err(); err != nil {
		logger.Warn("descriptor_cache_set_failed", map[string]any{"error": err.Error()})
	}
	return table, nil
}

func hashDescriptorDir(dir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return "", err
	}
	sort.Strings(files)
	h := sha256.New()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		h.Write([]byte(path))
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
