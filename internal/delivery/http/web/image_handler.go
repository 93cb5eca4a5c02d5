package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"product-search/pkg/logger"
	"product-search/pkg/utils"
)

// maxSourceImageBytes caps how much of a remote image is read.
const maxSourceImageBytes = 10 << 20

const maxImageRedirects = 5

var errHostNotAllowed = errors.New("image host not allowed")

// ImageHandler resizes remote product thumbnails and re-encodes them as
// WebP. Only hosts on the allow list are fetched.
type ImageHandler struct {
	client       *http.Client
	allowedHosts map[string]bool
	maxWidth     int
	quality      float32
}

func NewImageHandler(client *http.Client, allowedHosts []string, maxWidth int, quality float32) *ImageHandler {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		hosts[strings.ToLower(h)] = true
	}

	h := &ImageHandler{
		allowedHosts: hosts,
		maxWidth:     maxWidth,
		quality:      quality,
	}
	// Redirects must stay on the allow list too. The caller's client is
	// copied so its own redirect policy is left untouched.
	c := *client
	c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxImageRedirects {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		if !h.allowed(req.URL) {
			return fmt.Errorf("redirect to %s: %w", req.URL.Hostname(), errHostNotAllowed)
		}
		return nil
	}
	h.client = &c
	return h
}

func (h *ImageHandler) allowed(u *url.URL) bool {
	return h.allowedHosts[strings.ToLower(u.Hostname())]
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.WithContext(r.Context())

	src, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") || src.Host == "" {
		utils.WriteError(w, http.StatusBadRequest, "Invalid image URL")
		return
	}
	if !h.allowed(src) {
		utils.WriteError(w, http.StatusForbidden, "Image host not allowed")
		return
	}

	width := utils.ParseInt(r.URL.Query().Get("w"), 0)
	if width < 0 {
		utils.WriteError(w, http.StatusBadRequest, "Invalid width")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src.String(), nil)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid image URL")
		return
	}
	resp, err := h.client.Do(req)
	if errors.Is(err, errHostNotAllowed) {
		log.Warn().Err(err).Str("src", src.String()).Msg("Image redirect rejected")
		utils.WriteError(w, http.StatusForbidden, "Image host not allowed")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("src", src.String()).Msg("Image fetch failed")
		utils.WriteError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("src", src.String()).Msg("Image fetch failed")
		utils.WriteError(w, http.StatusBadGateway, "Failed to fetch image")
		return
	}
	if ct, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); ct != "" && !utils.IsImage(ct) {
		utils.WriteError(w, http.StatusBadGateway, "Upstream did not return an image")
		return
	}

	out, contentType, err := utils.ProcessThumbnail(io.LimitReader(resp.Body, maxSourceImageBytes), utils.ThumbnailOptions{
		Width:    width,
		MaxWidth: h.maxWidth,
		Quality:  h.quality,
	})
	if err != nil {
		log.Warn().Err(err).Str("src", src.String()).Msg("Image processing failed")
		utils.WriteError(w, http.StatusUnprocessableEntity, "Failed to process image")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
