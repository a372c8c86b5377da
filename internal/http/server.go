package http

import (
	"fmt"
	"html/template"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arenafs/arenafs/internal/domain"
	"github.com/arenafs/arenafs/internal/fs"
	"github.com/arenafs/arenafs/internal/logger"
)

// Browser serves a read-only HTML view of a volume.
type Browser struct {
	vol    *fs.FileSystem
	server *http.Server
}

type dirEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

const indexTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Index of {{.Path}}</title>
    <style>
        body { font-family: sans-serif; margin: 2em; }
        table { border-collapse: collapse; }
        th, td { padding: 4px 16px; text-align: left; border-bottom: 1px solid #eee; }
        a { color: #3498db; text-decoration: none; }
        .size { color: #999; }
    </style>
</head>
<body>
    <h1>Index of {{.Path}}</h1>
    <table>
        <thead><tr><th>Name</th><th>Size</th></tr></thead>
        <tbody>
            {{if ne .Path "/"}}
            <tr><td><a href="{{.ParentPath}}">..</a></td><td class="size">-</td></tr>
            {{end}}
            {{range .Entries}}
            <tr>
                <td>
                    {{if .IsDir}}
                    <a href="{{$.Path}}{{.Name}}/">{{.Name}}/</a>
                    {{else}}
                    <a href="{{$.Path}}{{.Name}}">{{.Name}}</a>
                    {{end}}
                </td>
                <td class="size">{{if .IsDir}}-{{else}}{{.Size | formatSize}}{{end}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
</body>
</html>`

func NewBrowser(vol *fs.FileSystem) *Browser {
	return &Browser{vol: vol}
}

func (b *Browser) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", b.handleRequest)

	b.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Volume browser listening on %s", addr)
	go func() {
		if err := b.server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("Volume browser error: %v", err)
		}
	}()

	return nil
}

func (b *Browser) Stop() {
	if b.server != nil {
		b.server.Close()
	}
}

func (b *Browser) handleRequest(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	logger.Debug("Browser request: %s %s", r.Method, path)

	idx, err := b.vol.WalkPath(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	node, err := b.vol.Inode(idx)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if node.IsDir() {
		b.serveDirectory(w, r, path, idx)
	} else {
		b.serveFile(w, r, path, idx)
	}
}

func (b *Browser) serveDirectory(w http.ResponseWriter, r *http.Request, path string, idx int32) {
	if !strings.HasSuffix(path, "/") {
		http.Redirect(w, r, path+"/", http.StatusMovedPermanently)
		return
	}

	entries, err := b.vol.List(idx)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var dirEntries []dirEntry
	for _, e := range entries {
		dirEntries = append(dirEntries, dirEntry{
			Name:  e.Name,
			IsDir: e.Type == domain.NodeDirectory,
			Size:  int64(e.Size),
		})
	}

	sort.Slice(dirEntries, func(i, j int) bool {
		if dirEntries[i].IsDir != dirEntries[j].IsDir {
			return dirEntries[i].IsDir
		}
		return dirEntries[i].Name < dirEntries[j].Name
	})

	parentPath := filepath.Dir(strings.TrimSuffix(path, "/"))
	if parentPath == "" || parentPath == "." {
		parentPath = "/"
	}
	if !strings.HasSuffix(parentPath, "/") {
		parentPath += "/"
	}

	funcMap := template.FuncMap{
		"formatSize": formatSize,
	}

	tmpl, err := template.New("index").Funcs(funcMap).Parse(indexTemplate)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := struct {
		Path       string
		ParentPath string
		Entries    []dirEntry
	}{
		Path:       path,
		ParentPath: parentPath,
		Entries:    dirEntries,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl.Execute(w, data)
}

func (b *Browser) serveFile(w http.ResponseWriter, r *http.Request, path string, idx int32) {
	data, err := b.vol.ReadFile(idx)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ext := filepath.Ext(path)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))

	if r.Method == http.MethodHead {
		return
	}

	io.WriteString(w, string(data))
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
