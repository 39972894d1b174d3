package fetch

import (
	"context"
	"encoding/base32"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/ifacetool/internal/model"
)

// LocalPublisherID is the publisher-id given to local snaps.
const LocalPublisherID = "local"

// localSnapIDLen matches the length of store snap-ids.
const localSnapIDLen = 32

// ExtractFunc extracts meta/snap.yaml from the .snap archive at snapPath
// into destDir.
type ExtractFunc func(ctx context.Context, snapPath, destDir string) error

// Unsquashfs extracts meta/snap.yaml with the unsquashfs tool.
func Unsquashfs(ctx context.Context, snapPath, destDir string) error {
	cmd := exec.CommandContext(ctx, "unsquashfs", "-n", "-f", "-d", destDir, snapPath, "meta/snap.yaml") //nolint:gosec // path given by the user
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("unsquashfs %s failed: %w: %s", snapPath, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// isLocalFile reports whether token names a local snap file.
func isLocalFile(token string) bool {
	switch strings.ToLower(filepath.Ext(token)) {
	case ".snap", ".yaml", ".yml":
	default:
		return false
	}
	info, err := os.Stat(token)
	return err == nil && !info.IsDir()
}

// ParseTarget parses a "<snap>[@<rev>]" token. A token naming an existing
// .snap or .yaml file becomes a local revision named after its snap.yaml.
func ParseTarget(ctx context.Context, token string, extract ExtractFunc) (model.SnapAtRev, error) {
	if !isLocalFile(token) {
		return model.ParseSnapAtRev(token)
	}

	abs, err := filepath.Abs(token)
	if err != nil {
		return model.SnapAtRev{}, fmt.Errorf("failed to resolve %s: %w", token, err)
	}
	data, err := readSnapYAML(ctx, abs, extract)
	if err != nil {
		return model.SnapAtRev{}, err
	}
	name, err := snapName(data)
	if err != nil {
		return model.SnapAtRev{}, fmt.Errorf("%s: %w", token, err)
	}
	return model.SnapAtRev{Name: name, Revision: model.LocalPath(abs)}, nil
}

// readSnapYAML returns the snap.yaml at path, extracting it first when path
// is a .snap archive.
func readSnapYAML(ctx context.Context, path string, extract ExtractFunc) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path) //nolint:gosec // path given by the user
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	case ".snap":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	if extract == nil {
		extract = Unsquashfs
	}
	tmp, err := os.MkdirTemp("", "ifacetool-unsquash-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	// unsquashfs wants to create the destination itself.
	dest := filepath.Join(tmp, "root")
	if err := extract(ctx, path, dest); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dest, "meta", "snap.yaml")) //nolint:gosec // extracted by us
	if err != nil {
		return nil, fmt.Errorf("no meta/snap.yaml in %s: %w", path, err)
	}
	return data, nil
}

// snapName returns the name declared in a snap.yaml.
func snapName(data []byte) (string, error) {
	var meta struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("invalid snap.yaml: %w", err)
	}
	if meta.Name == "" {
		return "", ErrNoSnapName
	}
	return meta.Name, nil
}

// localSnapID derives a stable snap-id from the content of the file at path.
func localSnapID(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path given by the user
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha3.New384()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return base32.StdEncoding.EncodeToString(h.Sum(nil))[:localSnapIDLen], nil
}
