package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidateName(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected string
	}{
		{"report.pdf", 0, "report.pdf"},
		{"report.pdf", 1, "report_1.pdf"},
		{"report.pdf", 2, "report_2.pdf"},
		{"archive.tar.gz", 1, "archive.tar_1.gz"},
		{"README", 3, "README_3"},
		{".bashrc", 1, ".bashrc_1"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, CandidateName(tt.name, tt.n))
	}
}

func TestSafeBaseName(t *testing.T) {
	req := require.New(t)
	req.Equal("passwd", SafeBaseName("../../etc/passwd"))
	req.Equal("evil.txt", SafeBaseName("..\\..\\evil.txt"))
	req.Equal("download", SafeBaseName(".."))
	req.Equal("report.pdf", SafeBaseName("report.pdf"))
}

func TestCreateUnique_Never_Overwrites(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	// Given report.pdf and report_1.pdf already exist
	req.NoError(os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("original"), 0o644))
	req.NoError(os.WriteFile(filepath.Join(dir, "report_1.pdf"), []byte("first copy"), 0o644))

	// When another report.pdf arrives
	file, err := CreateUnique(dir, "report.pdf")
	req.NoError(err)
	defer file.Close()

	// Then it lands in report_2.pdf and the originals are intact
	req.Equal(filepath.Join(dir, "report_2.pdf"), file.Name())
	original, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	req.NoError(err)
	req.Equal("original", string(original))
}

func TestCreateUnique_Creates_Missing_Directory(t *testing.T) {
	req := require.New(t)
	dir := filepath.Join(t.TempDir(), "Downloads", "nested")

	file, err := CreateUnique(dir, "notes.txt")
	req.NoError(err)
	defer file.Close()

	req.Equal(filepath.Join(dir, "notes.txt"), file.Name())
}

func TestOfferName(t *testing.T) {
	require.Equal(t, "my_summer_photos.zip", OfferName("/home/alice/my summer  photos.zip"))
}
