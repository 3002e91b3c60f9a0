package core

import (
	"os"
	"path/filepath"
)

type Paths struct {
	HomeDir           string
	DataDir           string
	LogFile           string
	DocumentsFile     string
	ConfigFile        string
	LatestVersionFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".draftline")
		if override := os.Getenv("DRAFTLINE_HOME"); override != "" {
			dataDir = override
		}

		defaultPaths = &Paths{
			HomeDir:           homeDir,
			DataDir:           dataDir,
			LogFile:           filepath.Join(dataDir, "draftline.log"),
			DocumentsFile:     filepath.Join(dataDir, "documents.db"),
			ConfigFile:        filepath.Join(dataDir, "config.yaml"),
			LatestVersionFile: filepath.Join(dataDir, "latest_version.txt"),
		}

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func DocumentsFile() string {
	ensureDefaultPaths()
	return defaultPaths.DocumentsFile
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

func LatestVersionFile() string {
	ensureDefaultPaths()
	return defaultPaths.LatestVersionFile
}

// ResetPaths clears the cached paths, forcing them to be reinitialized.
// This is primarily used for testing purposes.
func ResetPaths() {
	defaultPaths = nil
}
