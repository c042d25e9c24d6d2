/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package content

import (
	"html/template"
	"net/http"
	"os"
	"sort"

	"github.com/f446843/hiawatha/httpwire"
)

// indexTemplate is intentionally minimal; html/template's auto-escaping
// is what earns it the spot over string concatenation here (entry names
// come straight from the filesystem and are not otherwise sanitized).
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><title>Index of {{.Path}}</title></head>
<body>
<h1>Index of {{.Path}}</h1>
<ul>
{{range .Entries}}<li><a href="{{.Name}}">{{.Name}}</a></li>
{{end}}</ul>
</body></html>
`))

type indexEntry struct{ Name string }

type indexData struct {
	Path    string
	Entries []indexEntry
}

// RenderIndex lists dirPath's immediate children as an HTML directory
// listing, used when show_index is set and start_file resolution falls
// through to a 404 on a trailing-slash GET.
func RenderIndex(rw *httpwire.ResponseWriter, uriPath, dirPath string) int {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return http.StatusNotFound
	}

	data := indexData{Path: uriPath}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		data.Entries = append(data.Entries, indexEntry{Name: name})
	}
	sort.Slice(data.Entries, func(i, j int) bool { return data.Entries[i].Name < data.Entries[j].Name })

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(http.StatusOK)
	_ = indexTemplate.Execute(rw, data)
	return http.StatusOK
}
