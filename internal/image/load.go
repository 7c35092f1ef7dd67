package imagepkg

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"

	"github.com/disintegration/imaging"

	"github.com/youruser/certapp/internal/util"
)

// loadBackground opens a template under the asset root and returns an
// editable copy of it.
func (c *Compositor) loadBackground(rel string) (*image.NRGBA, error) {
	path, err := util.ResolveUnder(c.AssetRoot, rel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackgroundNotFound, rel, err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBackgroundNotFound, rel)
		}
		return nil, fmt.Errorf("open background %s: %w", rel, err)
	}
	defer f.Close()

	if c.MaxBackgroundBytes > 0 {
		st, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat background %s: %w", rel, err)
		}
		if st.Size() > c.MaxBackgroundBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes", ErrBackgroundTooLarge, rel, st.Size())
		}
	}

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBackgroundDecode, rel, err)
	}
	return imaging.Clone(img), nil
}
