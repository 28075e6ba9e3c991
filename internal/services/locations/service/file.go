package service

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"sort"
	"strconv"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	dom "github.com/alexmarder/hloc/internal/services/locations/domain"
)

// FileCatalog serves the catalog from a JSON file for offline index builds
// the file holds either an array of locations or an object keyed by location id
type FileCatalog struct {
	Path string
}

// All implements domain.CatalogPort
func (f FileCatalog) All(_ context.Context) ([]dom.Location, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read catalog %s", f.Path)
	}
	locs, err := DecodeCatalog(b)
	if err != nil {
		return nil, perr.WithOp(err, f.Path)
	}
	return locs, nil
}

// DecodeCatalog parses a catalog document
func DecodeCatalog(b []byte) ([]dom.Location, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var locs []dom.Location
		if err := json.Unmarshal(b, &locs); err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeParse, "decode catalog array")
		}
		return locs, nil
	}

	var byID map[string]dom.Location
	if err := json.Unmarshal(b, &byID); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeParse, "decode catalog object")
	}
	locs := make([]dom.Location, 0, len(byID))
	for k, l := range byID {
		if l.ID == 0 {
			id, err := strconv.ParseInt(k, 10, 64)
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeParse, "catalog key %q is not a location id", k)
			}
			l.ID = id
		}
		locs = append(locs, l)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })
	return locs, nil
}
