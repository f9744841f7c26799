// Package browser launches Chrome through Rod for the UI suite.
package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Config configures Chrome launch options.
type Config struct {
	Headless bool          // Run without a window (default: true)
	Timeout  time.Duration // Page load timeout (default: 30s)
	Width    int           // Viewport width (default: 1920)
	Height   int           // Viewport height (default: 1080)
	Bin      string        // Chrome binary; empty lets Rod find or download one
}

// DefaultConfig returns the settings the suite runs with.
func DefaultConfig() Config {
	return Config{
		Headless: true,
		Timeout:  30 * time.Second,
		Width:    1920,
		Height:   1080,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	return c
}

// Args returns the Chrome command line switches for cfg.
func (c Config) Args() map[flags.Flag]string {
	c = c.withDefaults()
	return map[flags.Flag]string{
		"no-sandbox":  "",
		"disable-gpu": "",
		"lang":        "cs-CZ",
		"window-size": fmt.Sprintf("%d,%d", c.Width, c.Height),
	}
}

// Client owns one Chrome process.
type Client struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      Config
}

// New launches Chrome and connects to it.
func New(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	l := launcher.New().Headless(cfg.Headless)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	for flag, value := range cfg.Args() {
		if value == "" {
			l = l.Set(flag)
			continue
		}
		l = l.Set(flag, value)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch Chrome: %w", err)
	}

	b := rod.New().ControlURL(url).NoDefaultDevice()
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to Chrome: %w", err)
	}

	return &Client{launcher: l, browser: b, cfg: cfg}, nil
}

// Timeout is the configured page load timeout.
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// NewPage opens a blank tab sized to the configured viewport.
func (c *Client) NewPage() (*rod.Page, error) {
	if c.browser == nil {
		return nil, errors.New("browser not connected")
	}
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.cfg.Width,
		Height:            c.cfg.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	return page, nil
}

// Close shuts Chrome down. Always call this (via defer) to avoid orphaned processes.
func (c *Client) Close() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
	}
	if c.launcher != nil {
		c.launcher.Cleanup()
	}
	return err
}
