// Package network serves HTTPS and plain HTTP on one port: plain HTTP requests
// are answered with a redirect to the HTTPS URL.
package network

import (
	"bufio"
	"io"
	"net"
	"net/http"
	"sync"
)

// tlsHandshake is the record type byte that opens every TLS ClientHello.
const tlsHandshake = 0x16

// AutoHttpsConn inspects the first byte a client sends. TLS traffic passes
// through untouched; anything else is parsed as an HTTP request and answered
// with 307 to the https:// URL, then the connection is closed.
type AutoHttpsConn struct {
	net.Conn

	reader     *bufio.Reader
	redirected bool

	sniffOnce sync.Once
}

func NewAutoHttpsConn(conn net.Conn) net.Conn {
	return &AutoHttpsConn{
		Conn:   conn,
		reader: bufio.NewReader(conn),
	}
}

func (c *AutoHttpsConn) sniff() {
	first, err := c.reader.Peek(1)
	if err != nil || first[0] == tlsHandshake {
		return
	}

	c.redirected = true
	defer c.Conn.Close()

	request, err := http.ReadRequest(c.reader)
	if err != nil {
		return
	}
	resp := &http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
	}
	resp.Header.Set("Location", "https://"+request.Host+request.URL.RequestURI())
	resp.Header.Set("Connection", "close")
	_ = resp.Write(c.Conn)
}

// Read implements net.Conn. After a redirect it reports EOF.
func (c *AutoHttpsConn) Read(buf []byte) (int, error) {
	c.sniffOnce.Do(c.sniff)
	if c.redirected {
		return 0, io.EOF
	}
	return c.reader.Read(buf)
}
