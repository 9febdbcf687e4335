package api

import (
	"bytes"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	qr "github.com/skip2/go-qrcode"
)

const qrSize = 256

// handleBoardQR encodes the share link for the requested board. The board
// itself is not generated; scanning the code reproduces it from the seed.
func handleBoardQR(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := parseBoardRequest(r, deps)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		png, err := qr.Encode(shareURL(deps.Config.PublicURL, req), qr.Medium, qrSize)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "qr encoding failed")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Board-Seed", strconv.FormatInt(req.Seed, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Turbo Catan</title></head>
<body>
<h1>Turbo Catan</h1>
<form method="get" action="/">
  <label>Players <input name="players" value="{{.Players}}" size="4"></label>
  <label>Rolls <select name="bonus">
    <option value="true"{{if .Bonus}} selected{{end}}>bonus</option>
    <option value="false"{{if not .Bonus}} selected{{end}}>plain</option>
  </select></label>
  <label><input type="checkbox" name="gold" value="true"{{if .Gold}} checked{{end}}> gold</label>
  <button type="submit">Generate</button>
</form>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .Image}}
<p>{{.Players}} players, seed {{.Seed}}, {{.Tiles}} tiles</p>
<img src="{{.Image}}" alt="board">
<p><a href="{{.ShareURL}}">share</a></p>
<img src="{{.QR}}" alt="share code" width="128" height="128">
{{end}}
</body>
</html>
`))

type indexPage struct {
	Players  string
	Bonus    bool
	Gold     bool
	Seed     int64
	Tiles    int
	Error    string
	Image    template.URL
	QR       template.URL
	ShareURL string
}

func pngDataURL(b []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(b))
}

// handleIndex renders the board page. Without a player count it shows just
// the form.
func handleIndex(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := indexPage{Players: r.URL.Query().Get("players"), Bonus: true}
		status := http.StatusOK

		if page.Players != "" {
			status = renderIndexBoard(logger, deps, r, &page)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if err := indexTemplate.Execute(w, page); err != nil {
			logger.Error("render index", "error", err)
		}
	}
}

func renderIndexBoard(logger *slog.Logger, deps Deps, r *http.Request, page *indexPage) int {
	req, err := parseBoardRequest(r, deps)
	if err != nil {
		page.Error = err.Error()
		return statusFor(err)
	}
	page.Bonus, page.Gold, page.Seed = req.Bonus, req.Gold, req.Seed

	b, _, err := generate(r.Context(), deps, req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Error("board generation failed", "path", r.URL.Path, "error", err)
			page.Error = "internal error"
		} else {
			page.Error = err.Error()
		}
		return status
	}

	var buf bytes.Buffer
	if err := deps.Renderer.EncodePNG(&buf, b.All()); err != nil {
		logger.Error("render board", "error", err)
		page.Error = "internal error"
		return http.StatusInternalServerError
	}
	page.Image = pngDataURL(buf.Bytes())
	page.Tiles = len(b.Tiles)
	page.ShareURL = shareURL(deps.Config.PublicURL, req)

	if code, err := qr.Encode(page.ShareURL, qr.Medium, qrSize); err == nil {
		page.QR = pngDataURL(code)
	} else {
		logger.Warn("share code", "error", err)
	}
	return http.StatusOK
}
