package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// newAssetRoot creates a temporary asset root with the application font in place.
func newAssetRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	fontPath := filepath.Join(root, DefaultFontPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fontPath), 0o755))
	require.NoError(t, os.WriteFile(fontPath, goregular.TTF, 0o644))
	return root
}

func writeBackground(t *testing.T, root, rel string, img image.Image) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func solidBackground(w, h int, c color.NRGBA) *image.NRGBA {
	return imaging.New(w, h, c)
}

func testFace(t *testing.T, size int) font.Face {
	t.Helper()
	f, err := opentype.Parse(goregular.TTF)
	require.NoError(t, err)
	face, err := NewFace(f, size)
	require.NoError(t, err)
	t.Cleanup(func() { face.Close() })
	return face
}

func decodePNG(t *testing.T, b []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
