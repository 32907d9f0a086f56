package engine

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"
)

// Static retailer pages are fetched through net/http, which cannot run
// HTTP/2 over a utls connection. The ClientHello therefore copies Chrome's
// except that ALPN offers only http/1.1, so servers never pick h2.
//
// A spec is built per connection: utls keeps handshake state in the
// extension values, so they cannot be shared between dials.
func chromeHTTP1Spec() (tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return tls.ClientHelloSpec{}, fmt.Errorf("tls: chrome hello: %w", err)
	}
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
	return spec, nil
}

// NewChromeTransport returns an http.Transport that presents a Chrome TLS
// fingerprint. proxy, when set, is used for plain-HTTP requests and as the
// CONNECT tunnel for HTTPS.
func NewChromeTransport(proxy string) (*http.Transport, error) {
	transport := &http.Transport{
		DialTLSContext:      dialChromeTLS,
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}
	if proxy != "" {
		u, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("tls: parse proxy %q: %w", proxy, err)
		}
		transport.Proxy = http.ProxyURL(u)
	}
	return transport, nil
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	spec, err := chromeHTTP1Spec()
	if err != nil {
		conn.Close()
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls: apply chrome spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
