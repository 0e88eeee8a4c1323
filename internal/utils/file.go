package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

func IsImageFile(filename string) bool {
	ext := strings.TrimPrefix(GetFileExtension(filename), ".")
	for _, allowed := range AllowedImageTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}

// GenerateUploadKey namespaces an upload under folder/owner with a random name.
func GenerateUploadKey(folder, owner, extension string) string {
	return fmt.Sprintf("%s/%s/%s%s", folder, owner, uuid.NewString(), extension)
}
