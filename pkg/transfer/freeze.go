package transfer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strings"

	"github.com/hack-pad/hackpadfs"

	"github.com/goliatone/go-autograph/pkg/store"
	"github.com/goliatone/go-autograph/pkg/views"
)

// Freeze requests every URL of the static routes from h and writes the
// responses under dir. URLs ending in a slash become index.html files.
// Any response other than 200 aborts the freeze.
func Freeze(ctx context.Context, fsys hackpadfs.FS, dir string, h http.Handler, routes []views.Route, st store.Reader, opts ...Option) ([]string, error) {
	o := newOptions(opts)
	dir = cleanDir(dir)
	o.logger.Infow("freezing", "dir", dir)

	seen := map[string]bool{}
	var written []string
	for _, route := range routes {
		urls, err := route.URLs(ctx, st)
		if err != nil {
			return written, fmt.Errorf("transfer: urls of %s: %w", route.Name, err)
		}
		for _, u := range urls {
			if seen[u] {
				continue
			}
			seen[u] = true
			name, err := freezePath(dir, u)
			if err != nil {
				return written, err
			}
			if err := freezeURL(ctx, fsys, h, u, name); err != nil {
				return written, err
			}
			o.logger.Debugw("frozen", "url", u, "file", name)
			written = append(written, name)
		}
	}
	o.logger.Infow("frozen", "files", len(written))
	return written, nil
}

func freezeURL(ctx context.Context, fsys hackpadfs.FS, h http.Handler, u, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	req := httptest.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		return fmt.Errorf("transfer: freeze %s: status %d", u, rec.Code)
	}
	if err := mkdirAll(fsys, path.Dir(name)); err != nil {
		return err
	}
	if err := hackpadfs.WriteFullFile(fsys, name, rec.Body.Bytes(), 0o644); err != nil {
		return fmt.Errorf("transfer: write %s: %w", name, err)
	}
	return nil
}

// freezePath maps a URL path to a file below dir.
func freezePath(dir, u string) (string, error) {
	segments := strings.Split(u, "/")
	for i, seg := range segments {
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return "", fmt.Errorf("transfer: freeze %s: %w", u, err)
		}
		// Escaped dot segments name a node, not a directory step.
		if dec != "." && dec != ".." {
			segments[i] = dec
		}
	}
	p := strings.Join(segments, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	name := path.Join(dir, strings.TrimPrefix(p, "/"))
	if dir != "." && name != dir && !strings.HasPrefix(name, dir+"/") {
		return "", fmt.Errorf("transfer: freeze %s: path escapes %s", u, dir)
	}
	if dir == "." && (name == ".." || strings.HasPrefix(name, "../")) {
		return "", fmt.Errorf("transfer: freeze %s: path escapes the root", u)
	}
	return name, nil
}
