package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxImageSize = 10 << 20 // 10 MB

// imageTypes maps the MIME types a bundle accepts to their file extension.
var imageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9._]+`)

var errBlockedAddr = errors.New("blocked address")

type attachResult struct {
	SavedPath     string `json:"savedPath"`
	MarkdownImage string `json:"markdownImage"`
}

// image is a downloaded or decoded image. ext is derived from its declared
// type and may be empty for remote images served without one.
type image struct {
	data []byte
	ext  string
}

func (s *Server) attachImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	src, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	img, err := s.loadImage(ctx, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := imageName(slug, req.GetString("filename", ""), src, img.ext)
	if err := checkContent(img.data, path.Ext(name)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	saved, err := s.svc.AttachImage(slug, name, img.data)
	if err != nil {
		return toolError("failed to attach image: %v", err), nil
	}

	// Bundle resources are referenced relative to index.md.
	out, _ := json.Marshal(attachResult{
		SavedPath:     saved,
		MarkdownImage: fmt.Sprintf("![Image](%s)", name),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) loadImage(ctx context.Context, src string) (image, error) {
	if strings.HasPrefix(src, "data:") {
		data, ext, err := decodeDataURI(src)
		if err != nil {
			return image{}, err
		}
		if len(data) > maxImageSize {
			return image{}, fmt.Errorf("file too large: %d bytes (max %d)", len(data), maxImageSize)
		}
		return image{data: data, ext: ext}, nil
	}
	return s.fetchImage(ctx, src)
}

// decodeDataURI parses a base64 data:<mediatype>;base64,<data> URI.
func decodeDataURI(uri string) ([]byte, string, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("invalid data URI: missing comma separator")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("only base64 data URIs are supported")
	}
	mime, _, _ = strings.Cut(mime, ";")

	ext := imageTypes[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported MIME type in data URI: %s", mime)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
			return nil, "", fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, ext, nil
}

// fetchImage downloads an http(s) image. Connections to loopback, private
// and link-local addresses are refused at dial time, so redirects and DNS
// answers cannot reach them either.
func (s *Server) fetchImage(ctx context.Context, rawURL string) (image, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return image{}, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return image{}, fmt.Errorf("unsupported scheme: %s (only http/https)", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return image{}, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return image{}, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return image{}, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize+1))
	if err != nil {
		return image{}, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxImageSize {
		return image{}, fmt.Errorf("file too large: exceeds %d bytes", maxImageSize)
	}

	mime, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")
	return image{data: data, ext: imageTypes[strings.TrimSpace(mime)]}, nil
}

func newFetchClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("%w: %s", errBlockedAddr, address)
			}
			if blockedAddr(ap.Addr()) {
				return fmt.Errorf("%w: %s", errBlockedAddr, ap.Addr())
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext
	transport.Proxy = nil

	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			return nil
		},
	}
}

// blockedAddr reports whether addr is loopback, private, link-local (which
// covers the cloud metadata endpoint) or unspecified.
func blockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()
}

// imageName picks the bundle file name: the requested name, else the last
// URL path segment, else one generated from the slug. The extension falls
// back to the detected one when the name has none.
func imageName(slug, requested, src, ext string) string {
	name := requested
	if name == "" && !strings.HasPrefix(src, "data:") {
		if u, err := url.Parse(src); err == nil {
			if base := path.Base(u.Path); strings.Contains(base, ".") {
				name = base
			}
		}
	}
	if name == "" {
		name = slug + "-" + uuid.NewString()[:8] + ext
	}
	name = bundleFilename(name)
	if path.Ext(name) == "" {
		name += ext
	}
	return name
}

// bundleFilename reduces name to a lowercase, hyphenated base name that is
// safe as a page resource.
func bundleFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.ToLower(path.Base(name))
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = strings.Trim(unsafeNameRe.ReplaceAllString(stem, "-"), "-.")
	ext = unsafeNameRe.ReplaceAllString(ext, "")
	if stem == "" {
		stem = uuid.NewString()[:8]
	}
	return stem + ext
}

// checkContent verifies the extension is an accepted image type and that
// the bytes match it.
func checkContent(data []byte, ext string) error {
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	accepted := false
	for _, e := range imageTypes {
		accepted = accepted || e == ext
	}
	if !accepted {
		return fmt.Errorf("unsupported file extension: %q (allowed: png, jpg, jpeg, gif, webp, svg)", ext)
	}

	if ext == ".svg" {
		head := data[:min(len(data), 1024)]
		if !bytes.Contains(head, []byte("<svg")) {
			return fmt.Errorf("content does not appear to be a valid SVG (missing <svg tag)")
		}
		return nil
	}

	detected, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if imageTypes[detected] != ext {
		return fmt.Errorf("content does not match extension %s (detected: %s)", ext, detected)
	}
	return nil
}
