package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/edgemesh/meshexec/internal/config"
	"github.com/edgemesh/meshexec/internal/logging"
)

const defaultRequestTimeout = 10 * time.Second

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "meshexecctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError()
	}

	fs := flag.NewFlagSet("meshexecctl", flag.ContinueOnError)
	addr := fs.String("addr", "", "dispatcher base url (default from config or http://localhost:9000)")
	configPath := fs.String("config", "", "service config file used to resolve the dispatcher address")
	device := fs.String("device", "", "target device id (exec)")
	appType := fs.String("app-type", "", "deployment app type (exec)")
	appURL := fs.String("app-url", "", "deployment image reference (exec)")
	id := fs.String("id", "", "execution id (status)")

	command := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	base, err := resolveBaseURL(*addr, *configPath)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: defaultRequestTimeout}

	switch command {
	case "exec":
		return runExec(client, base, out, *device, *appType, *appURL, fs.Args())
	case "status":
		return runStatus(client, base, out, *id)
	case "health":
		return runGet(client, base+"/health", out)
	case "ready":
		return runGet(client, base+"/ready", out)
	default:
		return usageError()
	}
}

func usageError() error {
	return fmt.Errorf("usage: meshexecctl <exec|status|health|ready> [flags] [command...]")
}

// resolveBaseURL prefers the explicit flag, then the config file's addr, then
// the well-known local default.
func resolveBaseURL(addr, configPath string) (string, error) {
	if v := strings.TrimSpace(addr); v != "" {
		return normalizeBaseURL(v), nil
	}
	if strings.TrimSpace(configPath) != "" {
		cfg, err := config.LoadServiceConfig(configPath)
		if err != nil {
			return "", err
		}
		return normalizeBaseURL(cfg.Addr), nil
	}
	return "http://localhost:9000", nil
}

func normalizeBaseURL(addr string) string {
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

type execPayload struct {
	DeviceID string   `json:"device_id"`
	Command  []string `json:"command,omitempty"`
	AppType  string   `json:"app_type,omitempty"`
	AppURL   string   `json:"app_url,omitempty"`
}

func runExec(client *http.Client, base string, out io.Writer, device, appType, appURL string, command []string) error {
	if strings.TrimSpace(device) == "" {
		return fmt.Errorf("exec requires -device")
	}
	payload := execPayload{
		DeviceID: device,
		Command:  command,
		AppType:  appType,
		AppURL:   appURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, base+"/ssh/exec", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(out, resp)
}

func runStatus(client *http.Client, base string, out io.Writer, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("status requires -id")
	}
	query := url.Values{"id": {id}}
	return runGet(client, base+"/deployments/status?"+query.Encode(), out)
}

func runGet(client *http.Client, target string, out io.Writer) error {
	resp, err := client.Get(target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(out, resp)
}

// printResponse re-indents the JSON body for the terminal and maps non-2xx
// statuses to a command failure after printing.
func printResponse(out io.Writer, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		pretty.Write(body)
	}
	fmt.Fprintln(out, pretty.String())

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed: %s", resp.Status)
	}
	return nil
}
