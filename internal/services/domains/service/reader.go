package service

import (
	"bufio"
	"context"
	"io"
	"net/netip"
	"os"
	"strings"

	perr "github.com/alexmarder/hloc/internal/platform/errors"
	dom "github.com/alexmarder/hloc/internal/services/domains/domain"
)

// ReadRecords streams "ip,name" lines from r in batches of size n
// blank and # lines are skipped; a line without a comma is a parse error
func ReadRecords(ctx context.Context, r io.Reader, n int, fn func([]dom.Record) error) error {
	if n <= 0 {
		n = 1000
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	batch := make([]dom.Record, 0, n)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		ip, name, ok := strings.Cut(text, ",")
		if !ok {
			return perr.WithField(perr.Parsef("line %d: want ip,name", line), "records")
		}
		batch = append(batch, dom.Record{IP: strings.TrimSpace(ip), Name: strings.TrimSpace(name)})
		if len(batch) == n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]dom.Record, 0, n)
		}
	}
	if err := sc.Err(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeParse, "read records")
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// ReadAllowList reads one address per line; blank and # lines are skipped
func ReadAllowList(r io.Reader) (map[netip.Addr]struct{}, error) {
	out := map[netip.Addr]struct{}{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		ip, err := netip.ParseAddr(text)
		if err != nil {
			return nil, perr.WithField(perr.Parsef("line %d: bad address %q", line, text), "allowed_ips")
		}
		out[ip.Unmap()] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeParse, "read allow list")
	}
	return out, nil
}

// LoadAllowList opens path and reads it with ReadAllowList
func LoadAllowList(path string) (map[netip.Addr]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "open %s", path)
	}
	defer f.Close()
	return ReadAllowList(f)
}
