// Package whookie serves the HTML/Prometheus introspection endpoints a
// running node exposes over chi (§4.10, recovered from original_source's
// webhook component since spec.md only names the capability). Grounded
// on the corpus's lib/http + fs/rc/rcserver idiom: a chi.Router mounted
// with one handler per resource, plus a dedicated /metrics route backed
// by promhttp.
package whookie

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sandialabs/faodel-sub005/internal/common"
	"github.com/sandialabs/faodel-sub005/internal/dirman"
	"github.com/sandialabs/faodel-sub005/internal/localkv"
)

// Server exposes a node's DirectoryCache, LocalKV, and metrics over HTTP.
type Server struct {
	router *chi.Mux
	dc     *dirman.Cache
	kv     *localkv.LocalKV
}

// New builds a Server. dc and kv may be nil if a node doesn't run that
// component (e.g. a pure DirMan client with no local IOM-backed store).
func New(dc *dirman.Cache, kv *localkv.LocalKV) *Server {
	s := &Server{router: chi.NewRouter(), dc: dc, kv: kv}
	s.router.Get("/dirman", s.handleDirman)
	s.router.Get("/dirman/entry", s.handleDirmanEntry)
	s.router.Get("/kelpie/localkv", s.handleLocalKV)
	s.router.Handle("/metrics", promhttp.Handler())
	return s
}

// Router exposes the underlying chi.Router for ListenAndServe or testing.
func (s *Server) Router() chi.Router { return s.router }

func (s *Server) handleDirman(w http.ResponseWriter, r *http.Request) {
	if s.dc == nil {
		http.Error(w, "no directory cache configured on this node", http.StatusNotFound)
		return
	}
	urls := s.dc.GetAllURLs()
	sort.Slice(urls, func(i, j int) bool { return urls[i].GetFullURL() < urls[j].GetFullURL() })

	var b strings.Builder
	b.WriteString("<html><body><h1>dirman</h1><table border=\"1\">")
	b.WriteString("<tr><th>url</th><th>members</th><th>info</th></tr>")
	for _, u := range urls {
		di, found := s.dc.Lookup(u)
		if !found {
			continue
		}
		fmt.Fprintf(&b, "<tr><td><a href=\"/dirman/entry?name=%s\">%s</a></td><td>%d</td><td>%s</td></tr>",
			u.GetFullURL(), u.GetFullURL(), len(di.Children), di.Info)
	}
	b.WriteString("</table></body></html>")
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleDirmanEntry(w http.ResponseWriter, r *http.Request) {
	if s.dc == nil {
		http.Error(w, "no directory cache configured on this node", http.StatusNotFound)
		return
	}
	name := r.URL.Query().Get("name")
	u, err := common.ParseResourceURL(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	di, found := s.dc.Lookup(u)
	if !found {
		http.Error(w, "not found: "+name, http.StatusNotFound)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<html><body><h1>%s</h1><p>%s</p><table border=\"1\">", di.URL.GetFullURL(), di.Info)
	b.WriteString("<tr><th>name</th><th>node</th></tr>")
	for _, c := range di.Children {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>", c.Name, c.Node.HTMLLink())
	}
	b.WriteString("</table></body></html>")
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleLocalKV(w http.ResponseWriter, r *http.Request) {
	if s.kv == nil {
		http.Error(w, "no localkv configured on this node", http.StatusNotFound)
		return
	}
	buckets := s.kv.Buckets()
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })

	stream := NewHTMLReplyStream()
	var b strings.Builder
	b.WriteString("<html><body><h1>kelpie/localkv</h1>")
	for _, bucket := range buckets {
		rows := make([][]string, 0)
		for _, e := range s.kv.List(bucket, "", "*") {
			rows = append(rows, []string{e.Key.Primary, e.Key.Secondary, fmt.Sprintf("%d", e.Capacity)})
		}
		b.WriteString(stream.Table(fmt.Sprintf("bucket 0x%08x", uint32(bucket)), []string{"primary", "secondary", "bytes"}, rows))
	}
	b.WriteString("</body></html>")
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(b.String()))
}
