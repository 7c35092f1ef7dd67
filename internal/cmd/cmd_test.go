package cmd

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/youruser/certapp/internal/batch"
	"github.com/youruser/certapp/internal/config"
	imagepkg "github.com/youruser/certapp/internal/image"
)

// setupEnv points the CLI at a fresh asset root holding the font and a
// 300x200 background at media/bg.png.
func setupEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		config.EnvServiceEnv, config.EnvDatabaseName, config.EnvLogFile,
		config.EnvAssetsRoot, config.EnvAssetsFontPath, config.EnvAssetsMediaDir, config.EnvAssetsMaxBackgroundSize,
		config.EnvFrontendURL, config.EnvDefaultZipName,
	} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvLogLevel, "error")

	root := t.TempDir()
	fontPath := filepath.Join(root, imagepkg.DefaultFontPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fontPath), 0o755))
	require.NoError(t, os.WriteFile(fontPath, goregular.TTF, 0o644))

	require.NoError(t, os.MkdirAll(filepath.Join(root, "media"), 0o755))
	bg := imaging.New(300, 200, color.NRGBA{R: 240, G: 240, B: 240, A: 255})
	require.NoError(t, imaging.Save(bg, filepath.Join(root, "media", "bg.png")))

	cfgPath := filepath.Join(root, "config.toml")
	body := "[assets]\nroot = \"" + filepath.ToSlash(root) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	t.Setenv(config.EnvConfigPath, cfgPath)
	return root
}

func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

const sampleBatch = `
zip_name: spring
certificates:
  - name: Ali
    bg_image_path: media/bg.png
    texts:
      - {content: Ali Valiyev, x: 150, y: 100, size: 24}
    qrcode: {url: "https://example.com/c/1", x: 10, y: 10, size: 60}
  - name: Vali
    bg_image_path: media/bg.png
  - name: Broken
`

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBatchJSON(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		payload, err := batchJSON([]byte(sampleBatch))
		require.NoError(t, err)
		b, err := batch.Parse(payload, "certificates")
		require.NoError(t, err)
		assert.Equal(t, "spring", b.ZipName)
		require.Len(t, b.Requests, 3)
		require.Len(t, b.Requests[0].Texts, 1)
		assert.Equal(t, 24, *b.Requests[0].Texts[0].Size)
		require.NotNil(t, b.Requests[0].QRCode)
		assert.Equal(t, "https://example.com/c/1", *b.Requests[0].QRCode.URL)
	})

	t.Run("json is accepted", func(t *testing.T) {
		payload, err := batchJSON([]byte(`{"certificates":[{"name":"A","bg_image_path":"x.png"}]}`))
		require.NoError(t, err)
		b, err := batch.Parse(payload, "certificates")
		require.NoError(t, err)
		assert.Equal(t, "certificates", b.ZipName)
		assert.Len(t, b.Requests, 1)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := batchJSON([]byte("certificates: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("non-string keys", func(t *testing.T) {
		_, err := batchJSON([]byte("certificates:\n  - {1: a}\n"))
		assert.ErrorContains(t, err, "string keys")
	})
}

func TestRender_WritesArchive(t *testing.T) {
	root := setupEnv(t)
	in := filepath.Join(root, "batch.yaml")
	require.NoError(t, os.WriteFile(in, []byte(sampleBatch), 0o644))
	out := filepath.Join(root, "out.zip")

	stdout, err := runCLI(t, "", "render", "--in", in, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.Equal(t, []string{"Ali.png", "Vali.png"}, zipNames(t, out))
}

func TestRender_Stdin(t *testing.T) {
	root := setupEnv(t)
	out := filepath.Join(root, "stdin.zip")

	_, err := runCLI(t, `{"certificates":[{"name":"Solo","bg_image_path":"media/bg.png"}]}`, "render", "--in", "-", "--out", out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Solo.png"}, zipNames(t, out))
}

func TestRender_Errors(t *testing.T) {
	root := setupEnv(t)

	_, err := runCLI(t, "", "render")
	assert.ErrorContains(t, err, "--in required")

	in := filepath.Join(root, "empty.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"certificates":[{"name":"X","bg_image_path":"media/missing.png"}]}`), 0o644))
	_, err = runCLI(t, "", "render", "--in", in, "--out", filepath.Join(root, "x.zip"))
	assert.ErrorIs(t, err, batch.ErrNoValidCertificates)

	require.NoError(t, os.WriteFile(in, []byte(`{"certificates":{}}`), 0o644))
	_, err = runCLI(t, "", "render", "--in", in)
	assert.ErrorIs(t, err, batch.ErrInvalidInputShape)
}

func TestMigrate_Args(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "", "migrate", "sideways")
	assert.Error(t, err)

	_, err = runCLI(t, "", "migrate", "up")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestImport_RequiresFlags(t *testing.T) {
	root := setupEnv(t)

	_, err := runCLI(t, "", "import", "--set", "1")
	assert.ErrorContains(t, err, "required")

	csvPath := filepath.Join(root, "roster.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name\nAli\n"), 0o644))
	_, err = runCLI(t, "", "import", "--set", "1", "--course", "2", "--csv", csvPath)
	assert.ErrorIs(t, err, errNoDatabase)
}
