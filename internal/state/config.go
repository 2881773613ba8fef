package state

import (
	"github.com/stridesec/threatflow/internal/platform/envutil"
)

const DefaultOutputDir = "./output"

// Config is resolved once at startup and passed into NewStore; the store
// itself never consults the environment.
type Config struct {
	OutputDir  string
	UploadDirs []string
}

func FromEnv() Config {
	return Config{
		OutputDir:  envutil.String("OUTPUT_DIR", DefaultOutputDir),
		UploadDirs: envutil.Strings("UPLOAD_DIRS", []string{"./uploads"}),
	}
}
