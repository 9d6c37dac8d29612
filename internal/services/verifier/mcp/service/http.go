package service

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// HTTPOptions guards the streamable HTTP endpoint.
type HTTPOptions struct {
	// AllowedHosts lists non-loopback Host/Origin values that are accepted.
	AllowedHosts []string
	// Token, when set, must be presented as a bearer token.
	Token string
}

// HTTPHandler serves MCP over streamable HTTP behind host and token checks.
type HTTPHandler struct {
	streamable   http.Handler
	allowedHosts map[string]struct{}
	token        string
	log          zerolog.Logger
}

// NewHTTPHandler wraps the server in the streamable HTTP transport.
func NewHTTPHandler(s *Server, opts HTTPOptions) *HTTPHandler {
	mcpServer := s.MCPServer()
	return &HTTPHandler{
		streamable: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return mcpServer
		}, nil),
		allowedHosts: parseAllowedHosts(opts.AllowedHosts),
		token:        strings.TrimSpace(opts.Token),
		log:          s.log,
	}
}

// ServeHTTP implements http.Handler.
func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.validateLocalRequest(r); err != nil {
		h.log.Warn().Str("host", r.Host).Str("origin", r.Header.Get("Origin")).Err(err).Msg("rejected mcp request")
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	if !h.authorizeRequest(w, r) {
		return
	}
	h.streamable.ServeHTTP(w, r)
}

// authorizeRequest checks the shared bearer token when one is configured.
func (h *HTTPHandler) authorizeRequest(w http.ResponseWriter, r *http.Request) bool {
	if h.token == "" {
		return true
	}
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeUnauthorized(w, "authorization required")
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		writeUnauthorized(w, "authorization required")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		writeUnauthorized(w, "invalid access token")
		return false
	}
	return true
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="verifier.space"`)
	http.Error(w, message, http.StatusUnauthorized)
}

// validateLocalRequest checks Host and Origin against the allowed hosts to
// mitigate DNS rebinding against a locally bound endpoint.
func (h *HTTPHandler) validateLocalRequest(r *http.Request) error {
	if r == nil {
		return fmt.Errorf("invalid request")
	}
	if !h.isAllowedHostHeader(r.Host) {
		return fmt.Errorf("invalid host")
	}

	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return nil
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid origin")
	}
	if !h.isAllowedHostHeader(parsed.Host) {
		return fmt.Errorf("invalid origin")
	}
	return nil
}

func (h *HTTPHandler) isAllowedHostHeader(host string) bool {
	resolvedHost, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(resolvedHost) {
		return true
	}
	_, ok = h.allowedHosts[strings.ToLower(resolvedHost)]
	return ok
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

func parseAllowedHosts(hosts []string) map[string]struct{} {
	result := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		result[strings.ToLower(trimmed)] = struct{}{}
	}
	return result
}

// normalizeHost extracts the hostname portion from Host/Origin headers.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}

	if strings.HasPrefix(host, "[") {
		if splitHost, _, err := net.SplitHostPort(host); err == nil {
			return splitHost, true
		}
		if strings.HasSuffix(host, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]"), true
		}
		return "", false
	}

	if strings.Count(host, ":") > 1 {
		return host, true
	}

	if strings.Contains(host, ":") {
		splitHost, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return splitHost, true
	}

	return host, true
}
