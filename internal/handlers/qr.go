package handlers

import (
	"bytes"
	"io"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// QRCode renders the link's tracking URL as a PNG.
// Query: shape=square|circle, fg=#rrggbb, dl=1 for an attachment.
func (h *LinkHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	link, ok := h.Registry.Find(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "Link not found", http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	opts := []standard.ImageOption{
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
		standard.WithBorderWidth(20),
		standard.WithBgTransparent(),
	}
	if q.Get("shape") == "circle" {
		opts = append(opts, standard.WithCircleShape())
	}
	if fg := q.Get("fg"); hexColorRe.MatchString(fg) {
		opts = append(opts, standard.WithFgColorRGBHex(fg))
	}

	qrc, err := qrcode.New(link.TrackingURL(h.BaseURL))
	if err != nil {
		jsonError(w, "failed to generate qr code", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := qrc.Save(standard.NewWithWriter(nopCloser{&buf}, opts...)); err != nil {
		jsonError(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if q.Get("dl") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+link.TrackingID+`-qr.png"`)
	}
	w.Write(buf.Bytes())
}
