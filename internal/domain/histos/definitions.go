package histos

import (
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// suffix2D marks two-dimensional quantities in definition files.
const suffix2D = "_hh"

// Definition fixes the binning of one quantity.
type Definition struct {
	Name   string
	BinsX  int     `koanf:"bins"`
	MinX   float64 `koanf:"minX"`
	MaxX   float64 `koanf:"maxX"`
	BinsY  int     `koanf:"binsY"`
	MinY   float64 `koanf:"minY"`
	MaxY   float64 `koanf:"maxY"`
	XTitle string  `koanf:"xtitle"`
	YTitle string  `koanf:"ytitle"`
}

// Is2D reports whether the definition describes a 2-D accumulator.
func (d Definition) Is2D() bool {
	return d.BinsY > 0 || strings.HasSuffix(d.Name, suffix2D)
}

// Validate checks the binning.
func (d Definition) Validate() error {
	if d.BinsX <= 0 || d.MaxX <= d.MinX {
		return fmt.Errorf("%w: %s: x binning (%d, %g, %g)", ErrConfig, d.Name, d.BinsX, d.MinX, d.MaxX)
	}
	if d.Is2D() && (d.BinsY <= 0 || d.MaxY <= d.MinY) {
		return fmt.Errorf("%w: %s: y binning (%d, %g, %g)", ErrConfig, d.Name, d.BinsY, d.MinY, d.MaxY)
	}
	return nil
}

// LoadDefinitions reads a histogram-definition file:
//
//	vtx_chi2_h:
//	  bins: 100
//	  minX: 0
//	  maxX: 50
//	  xtitle: "vertex #chi^{2}"
//	vtx_InvM_vtx_z_hh:
//	  bins: 200
//	  minX: 0
//	  maxX: 0.2
//	  binsY: 100
//	  minY: -20
//	  maxY: 80
//
// Definitions are returned sorted by name.
func LoadDefinitions(path string) ([]Definition, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConfig, path, err)
	}

	names := make([]string, 0, len(k.Raw()))
	for n := range k.Raw() {
		names = append(names, n)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, n := range names {
		d := Definition{Name: n}
		if err := k.UnmarshalWithConf(n, &d, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %v", ErrConfig, path, n, err)
		}
		if d.BinsX == 0 && k.Exists(n+".binsX") {
			d.BinsX = k.Int(n + ".binsX")
		}
		d.Name = n
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defs = append(defs, d)
	}
	return defs, nil
}
