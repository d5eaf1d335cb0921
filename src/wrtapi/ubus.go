package wrtapi

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"wrtcli/src/backup/archive"
	"wrtcli/src/sshrun"
)

// anonSession is the well-known anonymous ubus session id used for login.
const anonSession = "00000000000000000000000000000000"

// httpTimeout is the fixed per-call ceiling; no shorter caller-configurable
// timeout exists.
const httpTimeout = 10 * time.Second

// configSections is the fixed, ordered list of configuration sections read
// during collection. Order is part of the archive contract.
var configSections = []string{"network", "wireless", "firewall", "dhcp", "system"}

const (
	identityPath  = "/etc/openwrt_release"
	identityEntry = "openwrt_release"
)

// UbusClient speaks the JSON-RPC control API; configuration collection runs
// over a separate SSH channel using the device's shell credentials.
type UbusClient struct {
	HTTP *http.Client
	Dial sshrun.Dialer
	id   int
}

// NewUbusClient returns a protocol-A client with the default transports.
func NewUbusClient() *UbusClient {
	return &UbusClient{
		HTTP: &http.Client{Timeout: httpTimeout},
		Dial: sshrun.Dial,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  [4]any `json:"params"`
}

type rpcResponse struct {
	Result []json.RawMessage `json:"result"`
	Error  *rpcError         `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call posts one JSON-RPC envelope and returns the payload at result[1].
func (c *UbusClient) call(d Device, session, object, method string, args any) (json.RawMessage, error) {
	c.id++
	if args == nil {
		args = struct{}{}
	}
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.id,
		Method:  "call",
		Params:  [4]any{session, object, method, args},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Post(d.UbusURL(), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode %s.%s response: %w", object, method, err)
	}
	if env.Error != nil {
		return nil, env.Error
	}
	if len(env.Result) == 0 {
		return nil, fmt.Errorf("%s.%s: empty result", object, method)
	}
	var code int
	if err := json.Unmarshal(env.Result[0], &code); err != nil {
		return nil, fmt.Errorf("%s.%s: malformed status code: %w", object, method, err)
	}
	if code != 0 {
		return nil, fmt.Errorf("%s.%s: ubus status code %d", object, method, code)
	}
	// Methods that return no data answer with a status-only result.
	if len(env.Result) < 2 {
		return nil, nil
	}
	return env.Result[1], nil
}

// Login requests session.login through the anonymous session and extracts
// the token from the nested result.
func (c *UbusClient) Login(d Device) (Session, error) {
	payload, err := c.call(d, anonSession, "session", "login", map[string]string{
		"username": d.User,
		"password": d.Password,
	})
	if err != nil {
		return "", &AuthError{Device: d.Name, Cause: err}
	}
	if payload == nil {
		return "", &AuthError{Device: d.Name, Cause: fmt.Errorf("login response carries no payload")}
	}
	var res struct {
		Token string `json:"ubus_rpc_session"`
	}
	if err := json.Unmarshal(payload, &res); err != nil {
		return "", &AuthError{Device: d.Name, Cause: fmt.Errorf("decode login payload: %w", err)}
	}
	if res.Token == "" {
		return "", &AuthError{Device: d.Name, Cause: fmt.Errorf("login response carries no session token")}
	}
	return Session(res.Token), nil
}

// Collect opens a shell connection and reads each configuration section in
// the fixed order, appending non-empty results as archive entries. A failed
// or empty section is skipped and reported, not fatal. The identity file is
// appended last under its reserved entry name when readable.
func (c *UbusClient) Collect(d Device, _ Session) ([]byte, error) {
	runner, closeConn, err := c.Dial(d.Addr, d.User, d.Password)
	if err != nil {
		return nil, &CollectionError{Device: d.Name, Cause: err}
	}
	defer closeConn()

	now := time.Now()
	b := archive.NewBuilder()
	for _, section := range configSections {
		out, err := runner.Run("uci export " + section)
		if err != nil || len(out) == 0 {
			log.Warn().
				Str("device", d.Name).
				Str("section", section).
				Err(err).
				Msg("skipping configuration section")
			continue
		}
		if err := b.Add("etc/config/"+section, out, now); err != nil {
			return nil, &CollectionError{Device: d.Name, Cause: err}
		}
	}
	if out, err := runner.Run("cat " + identityPath); err == nil && len(out) > 0 {
		if err := b.Add(identityEntry, out, now); err != nil {
			return nil, &CollectionError{Device: d.Name, Cause: err}
		}
	}
	if err := b.Close(); err != nil {
		return nil, &CollectionError{Device: d.Name, Cause: err}
	}
	return b.Bytes(), nil
}

// Restore pushes the archive through a backup.restore call. The call
// implicitly reboots the device, so no separate activation step follows.
func (c *UbusClient) Restore(d Device, s Session, data []byte) error {
	_, err := c.call(d, string(s), "backup", "restore", map[string]string{
		"archive": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return &RestoreError{Device: d.Name, Cause: err}
	}
	return nil
}

// Reboot issues system.reboot.
func (c *UbusClient) Reboot(d Device, s Session) error {
	_, err := c.call(d, string(s), "system", "reboot", nil)
	return err
}

// Status combines system.board and system.info.
func (c *UbusClient) Status(d Device, s Session) (SystemStatus, error) {
	var st SystemStatus

	board, err := c.call(d, string(s), "system", "board", nil)
	if err != nil {
		return st, err
	}
	if board == nil {
		return st, fmt.Errorf("system.board: response carries no payload")
	}
	var b struct {
		Hostname string `json:"hostname"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(board, &b); err != nil {
		return st, fmt.Errorf("decode system.board payload: %w", err)
	}

	info, err := c.call(d, string(s), "system", "info", nil)
	if err != nil {
		return st, err
	}
	if info == nil {
		return st, fmt.Errorf("system.info: response carries no payload")
	}
	var i struct {
		Uptime uint64    `json:"uptime"`
		Load   []float64 `json:"load"`
		Memory Memory    `json:"memory"`
	}
	if err := json.Unmarshal(info, &i); err != nil {
		return st, fmt.Errorf("decode system.info payload: %w", err)
	}

	st.Hostname = b.Hostname
	st.Model = b.Model
	st.Uptime = i.Uptime
	st.Load = i.Load
	st.Memory = i.Memory
	return st, nil
}
