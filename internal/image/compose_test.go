package imagepkg

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paper = color.NRGBA{R: 240, G: 236, B: 220, A: 0xff}

func TestCompose_SkipsInvalidRequests(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "templates/a.png", solidBackground(50, 50, paper))
	require.NoError(t, os.WriteFile(filepath.Join(root, "templates/broken.png"), []byte("not an image"), 0o644))

	c := NewCompositor(root, "", 0)

	cases := map[string]CertificateRequest{
		"missing name":       {BackgroundImagePath: "templates/a.png"},
		"blank name":         {Name: " \t", BackgroundImagePath: "templates/a.png"},
		"missing background": {Name: "x"},
		"file not found":     {Name: "x", BackgroundImagePath: "templates/none.png"},
		"outside root":       {Name: "x", BackgroundImagePath: "../etc/passwd"},
		"absolute path":      {Name: "x", BackgroundImagePath: "/etc/passwd"},
		"undecodable":        {Name: "x", BackgroundImagePath: "templates/broken.png"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			img, err := c.Compose(req)
			assert.NoError(t, err)
			assert.Nil(t, img)
		})
	}
}

func TestCompose_SkipsOversizedBackground(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "big.png", solidBackground(50, 50, paper))

	img, err := NewCompositor(root, "", 16).Compose(CertificateRequest{Name: "x", BackgroundImagePath: "big.png"})
	assert.NoError(t, err)
	assert.Nil(t, img)
}

func TestCompose_AcceptsAbsolutePathUnderRoot(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "media/courses/bg.png", solidBackground(40, 20, paper))

	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{
		Name:                "abs",
		BackgroundImagePath: filepath.Join(root, "media", "courses", "bg.png"),
	})
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 40, 20), decodePNG(t, img.Content).Bounds())
}

func TestCompose_MissingFontIsFatal(t *testing.T) {
	root := t.TempDir()
	writeBackground(t, root, "bg.png", solidBackground(50, 50, paper))
	c := NewCompositor(root, "", 0)

	_, err := c.Compose(CertificateRequest{
		Name:                "x",
		BackgroundImagePath: "bg.png",
		Texts:               []TextField{{Content: strPtr("Ali"), X: intPtr(1), Y: intPtr(1), Size: intPtr(12)}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFontUnavailable))

	// Without text the font is never needed.
	img, err := c.Compose(CertificateRequest{Name: "x", BackgroundImagePath: "bg.png"})
	require.NoError(t, err)
	require.NotNil(t, img)
}

func TestCompose_IncompleteFieldsLeaveBackgroundUntouched(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "bg.png", solidBackground(80, 40, paper))

	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{
		Name:                "plain",
		BackgroundImagePath: "bg.png",
		Texts: []TextField{
			{Content: strPtr("no size"), X: intPtr(5), Y: intPtr(5)},
			{Content: strPtr("zero size"), X: intPtr(5), Y: intPtr(5), Size: intPtr(0)},
		},
		QRCode: &QRSpec{URL: strPtr("https://example.com"), X: intPtr(0)},
	})
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, "plain", img.Name)

	out := decodePNG(t, img.Content)
	require.Equal(t, image.Rect(0, 0, 80, 40), out.Bounds())
	for y := 0; y < 40; y++ {
		for x := 0; x < 80; x++ {
			require.Equal(t, paper, nrgbaAt(out, x, y))
		}
	}
}

func TestCompose_StampsNameNearAnchor(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "templates/course.png", solidBackground(300, 120, paper))

	const x, y, size = 20, 50, 30
	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{
		Name:                "Ali",
		BackgroundImagePath: "templates/course.png",
		Texts:               []TextField{{Content: strPtr("Ali"), X: intPtr(x), Y: intPtr(y), Size: intPtr(size)}},
	})
	require.NoError(t, err)
	require.NotNil(t, img)
	out := decodePNG(t, img.Content)
	require.Equal(t, image.Rect(0, 0, 300, 120), out.Bounds())

	w, h := Measure("Ali", testFace(t, size))
	_, top := DrawAnchor(x, y, h)
	box := image.Rect(x-3, int(math.Floor(top))-3, x+w+3, int(math.Ceil(top))+h+3)

	var inked int
	for py := 0; py < 120; py++ {
		for px := 0; px < 300; px++ {
			c := nrgbaAt(out, px, py)
			if c == paper {
				continue
			}
			require.True(t, image.Pt(px, py).In(box), "ink outside text box at %d,%d", px, py)
			if c.R == textColor.R && c.G == textColor.G && c.B == textColor.B {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 0, "name must be drawn in the fill color")
}

func TestCompose_SkipsIncompleteFieldButDrawsNext(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "bg.png", solidBackground(300, 160, paper))

	const x, y, size = 150, 120, 30
	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{
		Name:                "Ali",
		BackgroundImagePath: "bg.png",
		Texts: []TextField{
			{Content: strPtr("Skipped"), X: intPtr(10), Y: intPtr(30)},
			{Content: strPtr("Ali"), X: intPtr(x), Y: intPtr(y), Size: intPtr(size)},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, img)
	out := decodePNG(t, img.Content)

	w, h := Measure("Ali", testFace(t, size))
	_, top := DrawAnchor(x, y, h)
	box := image.Rect(x-3, int(math.Floor(top))-3, x+w+3, int(math.Ceil(top))+h+3)

	var inked int
	for py := 0; py < 160; py++ {
		for px := 0; px < 300; px++ {
			if nrgbaAt(out, px, py) == paper {
				continue
			}
			require.True(t, image.Pt(px, py).In(box), "ink outside the valid field at %d,%d", px, py)
			inked++
		}
	}
	assert.Greater(t, inked, 0)
}

func TestCompose_FieldsDrawInOrder(t *testing.T) {
	root := newAssetRoot(t)
	writeBackground(t, root, "bg.png", solidBackground(200, 100, paper))
	c := NewCompositor(root, "", 0)

	first := TextField{Content: strPtr("WWWW"), X: intPtr(10), Y: intPtr(50), Size: intPtr(40)}
	second := TextField{Content: strPtr("IIII"), X: intPtr(20), Y: intPtr(55), Size: intPtr(40)}

	both, err := c.Compose(CertificateRequest{Name: "both", BackgroundImagePath: "bg.png", Texts: []TextField{first, second}})
	require.NoError(t, err)
	require.NotNil(t, both)

	// Stamp the second field onto the output of the first.
	step, err := c.Compose(CertificateRequest{Name: "step", BackgroundImagePath: "bg.png", Texts: []TextField{first}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "step.png"), step.Content, 0o644))
	layered, err := c.Compose(CertificateRequest{Name: "layered", BackgroundImagePath: "step.png", Texts: []TextField{second}})
	require.NoError(t, err)
	require.NotNil(t, layered)

	got, want, base := decodePNG(t, both.Content), decodePNG(t, layered.Content), decodePNG(t, step.Content)
	require.Equal(t, want.Bounds(), got.Bounds())
	var changed int
	for py := 0; py < 100; py++ {
		for px := 0; px < 200; px++ {
			require.Equal(t, nrgbaAt(want, px, py), nrgbaAt(got, px, py), "pixel %d,%d", px, py)
			if nrgbaAt(got, px, py) != nrgbaAt(base, px, py) {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 0, "second field must add ink over the first")
}

func TestCompose_PastesTransparentQR(t *testing.T) {
	root := newAssetRoot(t)
	blue := color.NRGBA{R: 20, G: 40, B: 200, A: 0xff}
	writeBackground(t, root, "bg.png", solidBackground(300, 300, blue))

	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{
		Name:                "qr",
		BackgroundImagePath: "bg.png",
		QRCode:              &QRSpec{URL: strPtr(verifyURL), X: intPtr(50), Y: intPtr(50), Size: intPtr(120)},
	})
	require.NoError(t, err)
	out := decodePNG(t, img.Content)

	assert.Equal(t, blue, nrgbaAt(out, 52, 52), "quiet zone shows the template")
	assert.Equal(t, blue, nrgbaAt(out, 10, 10))
	assert.Equal(t, blue, nrgbaAt(out, 200, 200))

	var dark int
	for py := 50; py < 170; py++ {
		for px := 50; px < 170; px++ {
			if c := nrgbaAt(out, px, py); c.R < 0x40 && c.B < 0x40 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0)
}

func TestCompose_OutputIsOpaque(t *testing.T) {
	root := newAssetRoot(t)
	bg := solidBackground(10, 10, color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	writeBackground(t, root, "alpha.png", bg)

	img, err := NewCompositor(root, "", 0).Compose(CertificateRequest{Name: "a", BackgroundImagePath: "alpha.png"})
	require.NoError(t, err)
	out := decodePNG(t, img.Content)

	assert.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 0xff}, nrgbaAt(out, 5, 5))
}

func TestCompositor_FontPathResolution(t *testing.T) {
	c := NewCompositor("/srv/assets", "", 0)
	assert.Equal(t, filepath.Join("/srv/assets", DefaultFontPath), c.fontFile())

	c = NewCompositor("/srv/assets", "/opt/fonts/x.ttf", 0)
	assert.Equal(t, "/opt/fonts/x.ttf", c.fontFile())

	c = NewCompositor("", "fonts/y.ttf", 0)
	assert.Equal(t, "fonts/y.ttf", c.fontFile())
}
