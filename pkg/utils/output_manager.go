package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager handles exported file layout: one directory per load id
type OutputManager struct {
	BaseOutputDir string
}

// ExportedFile describes a file written for a load
type ExportedFile struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Size        int64  `json:"size"`
	SizeHuman   string `json:"sizeHuman"`
	DownloadURL string `json:"downloadUrl"`
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
	}
}

// CreateLoadOutputDir creates the directory holding a load's exported files
func (om *OutputManager) CreateLoadOutputDir(loadID string) (string, error) {
	if err := checkPathPart(loadID); err != nil {
		return "", err
	}
	loadDir := filepath.Join(om.BaseOutputDir, loadID)

	if err := os.MkdirAll(loadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create load output directory: %w", err)
	}

	return loadDir, nil
}

// GetOutputFilePath generates a full path for an output file, creating the load directory
func (om *OutputManager) GetOutputFilePath(loadID, fileName string) (string, error) {
	loadDir, err := om.CreateLoadOutputDir(loadID)
	if err != nil {
		return "", err
	}

	// Clean the filename to remove any path separators
	cleanFileName := filepath.Base(fileName)

	return filepath.Join(loadDir, cleanFileName), nil
}

// ResolveFile returns the path of an existing exported file without creating anything
func (om *OutputManager) ResolveFile(loadID, fileName string) (string, error) {
	if err := checkPathPart(loadID); err != nil {
		return "", err
	}
	if err := checkPathPart(fileName); err != nil {
		return "", err
	}
	path := filepath.Join(om.BaseOutputDir, loadID, fileName)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", fileName)
	}
	return path, nil
}

// GetDownloadURL generates a download URL for a file
func (om *OutputManager) GetDownloadURL(loadID, fileName string) string {
	cleanFileName := filepath.Base(fileName)
	return fmt.Sprintf("/api/v1/download/%s/%s", loadID, cleanFileName)
}

// GetFileType determines the file type based on extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".txt":
		return "text"
	default:
		return "unknown"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}

// Describe builds the ExportedFile entry for a written file
func (om *OutputManager) Describe(loadID, filePath string) (ExportedFile, error) {
	size, err := om.GetFileSize(filePath)
	if err != nil {
		return ExportedFile{}, err
	}
	name := filepath.Base(filePath)
	return ExportedFile{
		Name:        name,
		Type:        om.GetFileType(name),
		Size:        size,
		SizeHuman:   FormatBytes(size),
		DownloadURL: om.GetDownloadURL(loadID, name),
	}, nil
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0o755)
}

func checkPathPart(part string) error {
	if part == "" || part == "." || part == ".." || strings.ContainsAny(part, `/\`) {
		return fmt.Errorf("invalid path component %q", part)
	}
	return nil
}
