package devserver

import (
	"net/http"
	"strings"
)

// injectLiveReload injects the live reload client, and the failure overlay
// when something is failing, into HTML responses before </body>.
func injectLiveReload(next http.Handler, overlay *Overlay) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}

		// Pages change with the overlay, so never answer 304.
		r.Header.Del("If-Modified-Since")
		r.Header.Del("If-None-Match")
		w.Header().Set("Cache-Control", "no-store")

		injector := newLiveReloadInjector(w, overlay)
		next.ServeHTTP(injector, r)
		injector.finalize()
	})
}

// liveReloadInjector buffers an HTML response up to maxSize so the script can
// be inserted; larger or non-HTML responses pass through untouched.
type liveReloadInjector struct {
	http.ResponseWriter
	overlay       *Overlay
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func newLiveReloadInjector(w http.ResponseWriter, overlay *Overlay) *liveReloadInjector {
	return &liveReloadInjector{
		ResponseWriter: w,
		overlay:        overlay,
		statusCode:     http.StatusOK,
		maxSize:        512 * 1024,
	}
}

func (l *liveReloadInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *liveReloadInjector) Write(data []byte) (int, error) {
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")
		if !isHTML || l.statusCode != http.StatusOK {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > l.maxSize {
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize must be called after the handler completes.
func (l *liveReloadInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	snippet := `<script async src="` + LiveReloadScriptPath + `"></script>`
	if l.overlay != nil {
		snippet = l.overlay.HTML() + snippet
	}
	page := string(l.buffer)
	if i := strings.LastIndex(page, "</body>"); i >= 0 {
		page = page[:i] + snippet + page[i:]
	} else {
		page += snippet
	}

	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	_, _ = l.ResponseWriter.Write([]byte(page))
}
