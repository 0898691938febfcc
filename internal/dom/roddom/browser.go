package roddom

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/utils"
)

// Config configures the browser session.
type Config struct {
	// RemoteURL is the DevTools websocket of a running Chrome. Empty launches
	// a local one.
	RemoteURL string `mapstructure:"remote-url"`
	Headless  bool   `mapstructure:"headless"`
	Stealth   bool   `mapstructure:"stealth"`
	// NavigationTimeout bounds navigation and load waiting.
	NavigationTimeout time.Duration `mapstructure:"navigation-timeout"`
	// Settle is an extra delay after load for client-side rendering.
	Settle time.Duration `mapstructure:"settle"`
}

// Session owns one browser connection.
type Session struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
	logger  *zap.Logger
}

// Launch starts or connects to Chrome.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}

	s := &Session{cfg: cfg, logger: logger}

	wsURL := cfg.RemoteURL
	if wsURL != "" {
		logger.Info("connecting to remote browser", zap.String("url", wsURL))
	} else {
		l := launcher.New().Context(ctx).Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		wsURL = u
		s.lnch = l
		logger.Debug("launched local browser", zap.String("url", wsURL), zap.Bool("headless", cfg.Headless))
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	s.browser = b

	return s, nil
}

// Open creates a tab, navigates to pageURL and waits for load plus the
// configured settle delay.
func (s *Session) Open(ctx context.Context, pageURL string) (*rod.Page, error) {
	var (
		page *rod.Page
		err  error
	)
	if s.cfg.Stealth {
		page, err = stealth.Page(s.browser)
	} else {
		page, err = s.browser.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		_ = page.Close()
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.Warn("wait load timeout", zap.String("url", pageURL), zap.Error(err))
	}

	if err := utils.WaitFor(ctx, s.cfg.Settle); err != nil {
		_ = page.Close()
		return nil, err
	}

	return page, nil
}

// Close disconnects and stops a launched browser.
func (s *Session) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	s.cleanup()
	return err
}

func (s *Session) cleanup() {
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch = nil
	}
}
