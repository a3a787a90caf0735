package kobo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// DatabaseRelPath is where Kobo firmware keeps the annotation database,
// relative to the device's mount point.
const DatabaseRelPath = ".kobo/KoboReader.sqlite"

// kepubDirRelPath is the sideloaded-book cache some firmware versions use.
const kepubDirRelPath = ".kobo/kepub"

// DetectDrive scans the platform's usual mount points for a directory
// containing the Kobo annotation database. Returns an error when no
// device is found; an explicitly configured drive skips detection.
func DetectDrive() (string, error) {
	for _, base := range mountBases() {
		entries, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			candidate := filepath.Join(base, entry.Name())
			if isKoboDrive(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("no Kobo device found; connect the device or set KOBO_DRIVE")
}

func mountBases() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/Volumes"}
	}
	bases := []string{"/media", "/run/media", "/mnt"}
	if home, err := os.UserHomeDir(); err == nil {
		user := filepath.Base(home)
		bases = append(bases, filepath.Join("/media", user), filepath.Join("/run/media", user))
	}
	return bases
}

func isKoboDrive(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, DatabaseRelPath))
	return err == nil && !info.IsDir()
}

// CopyDatabase copies the device's annotation database to destPath so
// queries never touch (or lock) the mounted device file.
func CopyDatabase(drive, destPath string) error {
	src, err := os.Open(filepath.Join(drive, DatabaseRelPath))
	if err != nil {
		return fmt.Errorf("failed to open device database: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create local database copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy device database: %w", err)
	}
	return dst.Sync()
}

// ResolveContentPath maps a volume ID to the EPUB file on the mounted
// drive, falling back to the firmware's kepub cache. Returns "" when the
// file cannot be found (deleted or encrypted book); the book's highlights
// are then exported without context.
func ResolveContentPath(drive, volumeID string) string {
	rel := trimVolumePrefix(volumeID)
	direct := filepath.Join(drive, filepath.FromSlash(rel))
	if fileExists(direct) {
		return direct
	}

	kepub := filepath.Join(drive, filepath.FromSlash(kepubDirRelPath), filepath.Base(rel))
	if fileExists(kepub) {
		return kepub
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
