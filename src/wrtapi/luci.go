package wrtapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Fixed web-admin endpoints. The cookie header sysauth=<token> accompanies
// every authenticated call.
const (
	luciAuthPath    = "/cgi-bin/luci/rpc/auth"
	luciBackupPath  = "/cgi-bin/luci/admin/system/flashops/backup"
	luciRestorePath = "/cgi-bin/luci/admin/system/flashops/restore"
	luciRebootPath  = "/cgi-bin/luci/admin/system/reboot"
)

// LuciClient speaks the browser-facing administration HTTP API.
type LuciClient struct {
	HTTP *http.Client
}

// NewLuciClient returns a protocol-B client with the default transport.
func NewLuciClient() *LuciClient {
	return &LuciClient{HTTP: &http.Client{Timeout: httpTimeout}}
}

func (c *LuciClient) endpoint(d Device, path string) string {
	return fmt.Sprintf("http://%s%s", d.Addr, path)
}

func (c *LuciClient) do(req *http.Request, s Session) (*http.Response, error) {
	req.Header.Set("Cookie", "sysauth="+string(s))
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, req.URL.Path, resp.Status)
	}
	return resp, nil
}

// Login posts the credentials as a form and extracts the token from the
// top-level result field.
func (c *LuciClient) Login(d Device) (Session, error) {
	form := url.Values{
		"username": {d.User},
		"password": {d.Password},
	}
	resp, err := c.HTTP.Post(c.endpoint(d, luciAuthPath),
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Device: d.Name, Cause: err}
	}
	defer resp.Body.Close()

	var res struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", &AuthError{Device: d.Name, Cause: fmt.Errorf("decode auth response: %w", err)}
	}
	if res.Result == "" {
		return "", &AuthError{Device: d.Name, Cause: fmt.Errorf("auth response carries no token")}
	}
	return Session(res.Result), nil
}

// Collect fetches the device-generated backup in one request. The body is
// an opaque, already-formatted archive; its internal structure is the
// device's responsibility and is never reinterpreted here.
func (c *LuciClient) Collect(d Device, s Session) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.endpoint(d, luciBackupPath), nil)
	if err != nil {
		return nil, &CollectionError{Device: d.Name, Cause: err}
	}
	resp, err := c.do(req, s)
	if err != nil {
		return nil, &CollectionError{Device: d.Name, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CollectionError{Device: d.Name, Cause: fmt.Errorf("read backup body: %w", err)}
	}
	return data, nil
}

// Restore uploads the archive, then issues the separate reboot request.
// A reboot failure after a successful upload leaves the device restored but
// not rebooted; this is surfaced as a distinct outcome, not retried.
func (c *LuciClient) Restore(d Device, s Session, data []byte) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("archive", "backup.tar.gz")
	if err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}
	if _, err := fw.Write(data); err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}
	if err := mw.Close(); err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint(d, luciRestorePath), &body)
	if err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(req, s)
	if err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}
	resp.Body.Close()

	if err := c.Reboot(d, s); err != nil {
		return &RestoreError{Device: d.Name, Activated: true, Cause: err}
	}
	return nil
}

// Reboot posts to the fixed reboot endpoint.
func (c *LuciClient) Reboot(d Device, s Session) error {
	req, err := http.NewRequest(http.MethodPost, c.endpoint(d, luciRebootPath), nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, s)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Status is only implemented by the RPC control API.
func (c *LuciClient) Status(d Device, _ Session) (SystemStatus, error) {
	return SystemStatus{}, &UnsupportedError{Protocol: ProtocolLuci, Operation: "status"}
}
