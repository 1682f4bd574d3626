package provider

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/jing2uo/pricepanel/model"
	"github.com/jing2uo/pricepanel/tdx"
)

// TDXDir reads <dir>/<ticker>.day files exported by a TDX client.
type TDXDir struct {
	dir string
}

func NewTDXDir(dir string) *TDXDir {
	return &TDXDir{dir: dir}
}

func (t *TDXDir) Name() string { return "tdx" }

func (t *TDXDir) Fetch(ctx context.Context, req Request) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}

	bars, err := tdx.ReadDayFile(filepath.Join(t.dir, req.Ticker+".day"))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Series{}, &model.NoDataError{Ticker: req.Ticker}
	}
	if err != nil {
		return model.Series{}, err
	}
	return finish(req, bars)
}
